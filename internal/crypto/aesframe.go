// Package crypto implements the per-frame AES-128-CBC framing the client
// wire uses in place of TLS: a pre-shared key, a fresh random IV per
// frame, and no negotiation. Key rotation happens out of band.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"
)

const (
	KeySize   = 16 // AES-128
	blockSize = aes.BlockSize
)

var (
	ErrBadKeySize    = errors.New("ripcache: AES key must be 16 bytes")
	ErrTruncatedFrame = errors.New("ripcache: truncated encrypted frame")
	ErrBadPadding     = errors.New("ripcache: invalid PKCS#7 padding")
)

// Framer encrypts/decrypts single RESP frames with a pre-shared AES-128
// key, one random IV per frame, wrapped as:
//
//	u16 length(IV+ciphertext) | IV(16B) | ciphertext
//
// so a truncated frame is detectable from the length prefix alone,
// before any attempt to decrypt it.
type Framer struct {
	block cipher.Block
}

func NewFramer(key []byte) (*Framer, error) {
	if len(key) != KeySize {
		return nil, ErrBadKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &Framer{block: block}, nil
}

// Seal encrypts plaintext into one length-prefixed frame ready to write
// to the client socket.
func (f *Framer) Seal(plaintext []byte) ([]byte, error) {
	iv := make([]byte, blockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}

	padded := pkcs7Pad(plaintext, blockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(f.block, iv).CryptBlocks(ciphertext, padded)

	body := append(append([]byte{}, iv...), ciphertext...)
	frame := make([]byte, 2+len(body))
	binary.BigEndian.PutUint16(frame, uint16(len(body)))
	copy(frame[2:], body)
	return frame, nil
}

// Open decrypts a frame body (IV + ciphertext, with the length prefix
// already stripped by ReadFrame) back to plaintext.
func (f *Framer) Open(body []byte) ([]byte, error) {
	if len(body) < blockSize || (len(body)-blockSize)%blockSize != 0 {
		return nil, ErrTruncatedFrame
	}
	iv, ciphertext := body[:blockSize], body[blockSize:]
	if len(ciphertext) == 0 {
		return nil, ErrTruncatedFrame
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(f.block, iv).CryptBlocks(plaintext, ciphertext)
	return pkcs7Unpad(plaintext)
}

// WriteFrame encrypts plaintext and writes the length-prefixed frame to w.
func (f *Framer) WriteFrame(w io.Writer, plaintext []byte) error {
	frame, err := f.Seal(plaintext)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// ReadFrame reads one length-prefixed frame from r and decrypts it.
func ReadFrame(r io.Reader, f *Framer) ([]byte, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])
	if n < blockSize {
		return nil, ErrTruncatedFrame
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return f.Open(body)
}

func pkcs7Pad(data []byte, size int) []byte {
	pad := size - len(data)%size
	padded := make([]byte, len(data)+pad)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(pad)
	}
	return padded
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrBadPadding
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > len(data) || pad > blockSize {
		return nil, ErrBadPadding
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, ErrBadPadding
		}
	}
	return data[:len(data)-pad], nil
}
