package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatic_Grants(t *testing.T) {
	s := NewStatic()
	s.Grant("key-1", "configure-assets")
	s.Grant("key-2", "configure-assets", "admin-rescue")

	require.True(t, s.IsAllowed("key-1", "configure-assets"))
	require.False(t, s.IsAllowed("key-1", "admin-rescue"))
	require.True(t, s.IsAllowed("key-2", "admin-rescue"))
	require.False(t, s.IsAllowed("unknown", "configure-assets"))
	require.False(t, s.IsAllowed("", "configure-assets"))
}

func TestStatic_EmptyCallerNeverGranted(t *testing.T) {
	s := NewStatic()
	s.Grant("", "admin-rescue")
	require.False(t, s.IsAllowed("", "admin-rescue"))
}
