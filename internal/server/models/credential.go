package models

import "time"

// Credential is a submitter allowed to upload through ingestgate. The shared
// secret itself is never stored; only Salt and the derived Verifier are.
type Credential struct {
	ID        string
	Username  string
	Email     string
	Salt      []byte
	Verifier  []byte
	Methods   []string
	CreatedAt time.Time
}
