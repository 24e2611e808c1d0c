package logging

import (
	"log"
	"os"
)

var (
	Internal = log.New(os.Stdout, "[internal] ", log.LstdFlags)
	HTTP     = log.New(os.Stdout, "[http] ", log.LstdFlags)
	Relay    = log.New(os.Stdout, "[relay] ", log.LstdFlags)
	Store    = log.New(os.Stdout, "[store] ", log.LstdFlags)
	S3       = log.New(os.Stdout, "[s3] ", log.LstdFlags)
)
