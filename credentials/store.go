package credentials

// Store holds the current credential pair.
//
// Get never fails: a missing or expired access credential reads as nil.
// Load returns whatever pair is stored, expired or not.
// Set replaces both tokens in one step and Clear is idempotent. Every Set or
// Clear is visible to the next Get.
type Store interface {
	Get() *Credential
	Load() *Credential
	RefreshToken() string
	Set(c Credential) error
	Clear() error
	Present() bool
}
