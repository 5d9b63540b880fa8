package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/awnumar/memguard"
)

// EnclaveBridge keeps the credential in a memguard enclave so the plaintext
// refresh token never sits in ordinary heap memory between uses. It backs
// desktop targets where the OS biometric prompt guards the process rather
// than a hardware keystore.
type EnclaveBridge struct {
	mu      sync.Mutex
	enclave *memguard.Enclave
}

var _ Bridge = (*EnclaveBridge)(nil)

func NewEnclaveBridge() *EnclaveBridge {
	return &EnclaveBridge{}
}

func (b *EnclaveBridge) Available() bool { return true }

func (b *EnclaveBridge) Store(_ context.Context, cred Credential) error {
	raw, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// NewEnclave wipes raw after sealing it.
	b.enclave = memguard.NewEnclave(raw)
	return nil
}

func (b *EnclaveBridge) Retrieve(_ context.Context) (*Credential, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.enclave == nil {
		return nil, nil
	}

	buf, err := b.enclave.Open()
	if err != nil {
		return nil, fmt.Errorf("opening credential enclave: %w", err)
	}
	defer buf.Destroy()

	var cred Credential
	if err := json.Unmarshal(buf.Bytes(), &cred); err != nil {
		return nil, fmt.Errorf("decoding credential: %w", err)
	}
	return &cred, nil
}

func (b *EnclaveBridge) Delete(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enclave = nil
	return nil
}
