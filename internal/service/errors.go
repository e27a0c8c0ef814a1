package service

import "errors"

var (
	// ErrAlreadyClaimed: the code is held by a different chat. The existing
	// mapping is never mutated.
	ErrAlreadyClaimed = errors.New("code already claimed by another chat")
	// ErrAlreadyRegistered: the chat already claimed a different code.
	ErrAlreadyRegistered = errors.New("chat already registered with another code")
	// ErrDuplicateLink: the (holder, child, role) link already exists.
	ErrDuplicateLink = errors.New("role link already exists")
	// ErrDuplicateDevice: a child with this device id is already registered.
	ErrDuplicateDevice = errors.New("device id already registered")
	// ErrChildNotFound: no child matches the given id or device id.
	ErrChildNotFound = errors.New("child not found")
	// ErrNoChildren: the holder has no active child links.
	ErrNoChildren = errors.New("no children linked to holder")
)
