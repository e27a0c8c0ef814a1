package notify

import (
	"fmt"

	"github.com/danutirta/childguard_bot/internal/model"
)

// renderMessage builds the user-facing text and quick replies for an
// intent. Confirmation prompts carry Ya/Tidak options.
func renderMessage(it model.Intent) (string, []string) {
	name := ""
	if it.Child != nil {
		name = it.Child.Name
	}

	switch it.Kind {
	case model.IntentNearSchool:
		return fmt.Sprintf(
			"✅ Anda sudah berada dekat dengan sekolah\n"+
				"👶 Anak: %s\n"+
				"📏 Jarak: %.2f km",
			name, it.DistanceKm,
		), nil

	case model.IntentPickupPrompt:
		return fmt.Sprintf("🚸 Apakah Anda sudah menjemput %s?", name),
			[]string{"Ya", "Tidak"}

	case model.IntentMonitoringContinued:
		return fmt.Sprintf(
			"🔔 Monitoring dilanjutkan!\n\n🚸 Apakah Anda sudah menjemput %s?",
			name,
		), []string{"Ya", "Tidak"}

	case model.IntentMonitoringStopped:
		return fmt.Sprintf(
			"🔕 Monitoring untuk %s dihentikan.\n\n"+
				"🛡️ Hati-hati di jalan dan semoga sampai tujuan dengan selamat!\n\n"+
				"💡 Jangan lupa untuk mengetik /start lagi di esok hari agar monitoring berjalan kembali.",
			name,
		), nil

	case model.IntentFallAlert:
		return fmt.Sprintf(
			"🚨 ALERT DARURAT 🚨\n\n"+
				"⚠️ %s TERJATUH!\n"+
				"🕐 Waktu: %s\n"+
				"📍 Segera cek lokasi anak!\n\n"+
				"🚨 Mohon segera ambil tindakan!",
			name, it.When.Format("02/01/2006 15:04:05"),
		), nil
	}

	return "", nil
}
