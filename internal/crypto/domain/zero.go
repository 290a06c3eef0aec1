package domain

// Zero wipes key material once it is no longer needed: the unwrapped
// CRYPTO_SECRET after derivation and the derived field key on Close.
func Zero(bufs ...[]byte) {
	for _, b := range bufs {
		clear(b)
	}
}
