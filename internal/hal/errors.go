package hal

import "errors"

var (
	ErrListen       = errors.New("hal: listen failed")
	ErrAccept       = errors.New("hal: accept failed")
	ErrNoConnection = errors.New("hal: no pending connection")
	ErrWrite        = errors.New("hal: write failed")
	ErrClosed       = errors.New("hal: descriptor already closed")
)
