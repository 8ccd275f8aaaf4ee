package memory_test

import (
	"testing"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/adapters/memory"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}
