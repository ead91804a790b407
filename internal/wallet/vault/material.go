package vault

// KeyMaterial owns a decrypted private key for the dynamic extent of one
// signing or derivation call. Callers acquire it, defer Destroy and read the
// bytes through Bytes so the buffer is zeroed on every exit path.
type KeyMaterial struct {
	buf       []byte
	destroyed bool
}

// NewKeyMaterial takes ownership of buf. The caller must not retain buf.
func NewKeyMaterial(buf []byte) *KeyMaterial {
	return &KeyMaterial{buf: buf}
}

// Bytes returns the key bytes. The returned slice aliases the internal buffer
// and becomes invalid after Destroy.
func (m *KeyMaterial) Bytes() []byte {
	if m.destroyed {
		return nil
	}

	return m.buf
}

// Destroy zeroes the key bytes. Safe to call more than once.
func (m *KeyMaterial) Destroy() {
	ZeroBytes(m.buf)
	m.buf = nil
	m.destroyed = true
}

// ZeroBytes overwrites buf with zeros.
func ZeroBytes(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
