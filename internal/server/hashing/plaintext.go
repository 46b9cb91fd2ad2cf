package hashing

// Plaintext stores the password itself and compares with ==. Selected when
// hashing is disabled.
type Plaintext struct{}

func (Plaintext) Hash(plaintext string) (string, error) { return plaintext, nil }

func (Plaintext) Verify(digest, plaintext string) (bool, error) {
	return digest == plaintext, nil
}
