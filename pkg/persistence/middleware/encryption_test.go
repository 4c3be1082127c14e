package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func secretSnapshot() *domain.PendingParams {
	return &domain.PendingParams{
		ActionID: "relocate",
		Owner:    domain.Bookmark{LogicalTypeName: "shop.Customer", Identifier: "c-1"},
		Params: []domain.PendingParam{
			{ElementType: "shop.Address", Bookmarks: []domain.Bookmark{
				{LogicalTypeName: "shop.Address", Identifier: "Secret Lane 7|Lisbon"},
			}},
		},
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunSnapshotStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := memory.NewStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	dialogID := "test-dialog"

	if err := secureStore.Save(ctx, dialogID, secretSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The underlying store only sees the envelope.
	stored, err := underlyingStore.Load(ctx, dialogID)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if stored.Owner.LogicalTypeName != middleware.EnvelopeType {
		t.Fatalf("Expected envelope owner, got %v", stored.Owner)
	}
	if len(stored.Params) != 0 || strings.Contains(stored.Owner.Identifier, "Secret Lane") {
		t.Fatal("Expected params to be sealed")
	}
	if stored.ActionID != "relocate" {
		t.Errorf("Expected action ID to stay readable, got %q", stored.ActionID)
	}

	loaded, err := secureStore.Load(ctx, dialogID)
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if got := loaded.Params[0].Bookmarks[0].Identifier; got != "Secret Lane 7|Lisbon" {
		t.Errorf("Expected 'Secret Lane 7|Lisbon', got %v", got)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)

	ctx := context.Background()
	dialogID := "rotation-dialog"

	if err := secureStoreOld.Save(ctx, dialogID, secretSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	secureStoreNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Load(ctx, dialogID)
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if loaded.ActionID != "relocate" {
		t.Errorf("Decryption with fallback key failed")
	}

	// Saving again re-encrypts with the new key.
	if err := secureStoreNew.Save(ctx, dialogID, loaded); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}
	if _, err := secureStoreOld.Load(ctx, dialogID); err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RejectsPlainSnapshot(t *testing.T) {
	underlyingStore := memory.NewStore()
	ctx := context.Background()
	if err := underlyingStore.Save(ctx, "plain", secretSnapshot()); err != nil {
		t.Fatal(err)
	}

	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	if _, err := secureStore.Load(ctx, "plain"); err == nil {
		t.Error("Expected plain snapshot to be rejected")
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
}
