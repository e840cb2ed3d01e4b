package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/porkpie/pkg/core"
	"github.com/aretw0/porkpie/pkg/vocab"
)

func TestLocator_Locate(t *testing.T) {
	parent := spyRoot + "/obj"
	ctx := context.Background()

	t.Run("no containers", func(t *testing.T) {
		spy := NewSpyClient()
		_, err := core.NewLocator(spy, "").MembersContainer(ctx, parent, "")
		assert.True(t, errors.Is(err, core.ErrContainerNotFound))
	})

	t.Run("single match", func(t *testing.T) {
		spy := NewSpyClient().
			WithContainer(parent, parent+"/members", vocab.IndirectContainer, vocab.HasMember).
			WithContainer(parent, parent+"/files", vocab.DirectContainer, vocab.HasFile)
		loc := core.NewLocator(spy, "")

		members, err := loc.MembersContainer(ctx, parent, "")
		require.NoError(t, err)
		assert.Equal(t, parent+"/members", members)

		files, err := loc.FilesContainer(ctx, parent, "")
		require.NoError(t, err)
		assert.Equal(t, parent+"/files", files)
	})

	t.Run("first match wins", func(t *testing.T) {
		spy := NewSpyClient().
			WithContainer(parent, parent+"/a", vocab.IndirectContainer, vocab.HasMember).
			WithContainer(parent, parent+"/b", vocab.IndirectContainer, vocab.HasMember)

		got, err := core.NewLocator(spy, "").MembersContainer(ctx, parent, "")
		require.NoError(t, err)
		assert.Equal(t, parent+"/a", got)
	})

	t.Run("kind and relation must both match", func(t *testing.T) {
		spy := NewSpyClient().
			WithContainer(parent, parent+"/wrong-kind", vocab.DirectContainer, vocab.HasMember).
			WithContainer(parent, parent+"/wrong-relation", vocab.IndirectContainer, vocab.HasFile).
			WithContainer(parent, parent+"/prefix-only", vocab.IndirectContainer, vocab.HasMember+"s")

		_, err := core.NewLocator(spy, "").MembersContainer(ctx, parent, "")
		assert.True(t, errors.Is(err, core.ErrContainerNotFound))
	})

	t.Run("request shape", func(t *testing.T) {
		spy := NewSpyClient()
		_, _ = core.NewLocator(spy, "").FilesContainer(ctx, parent, spyTx)

		calls := spy.Calls("GetGraph")
		require.Len(t, calls, 1)
		assert.Equal(t, parent, calls[0].URI)
		assert.Equal(t, spyTx, calls[0].Tx)
		assert.Equal(t, vocab.EmbedResources, calls[0].Headers[core.HeaderPrefer])
	})

	t.Run("no caching", func(t *testing.T) {
		spy := NewSpyClient()
		loc := core.NewLocator(spy, "")
		_, _ = loc.MembersContainer(ctx, parent, "")
		_, _ = loc.MembersContainer(ctx, parent, "")
		assert.Equal(t, 2, spy.Count("GetGraph"))
	})

	t.Run("graph failure propagates", func(t *testing.T) {
		spy := NewSpyClient()
		spy.Fail("GetGraph", core.ErrNotFound)
		_, err := core.NewLocator(spy, "").MembersContainer(ctx, parent, "")
		assert.True(t, errors.Is(err, core.ErrNotFound))
		assert.False(t, errors.Is(err, core.ErrContainerNotFound))
	})

	t.Run("custom prefer", func(t *testing.T) {
		spy := NewSpyClient()
		_, _ = core.NewLocator(spy, "return=representation").MembersContainer(ctx, parent, "")
		assert.Equal(t, "return=representation", spy.Calls("GetGraph")[0].Headers[core.HeaderPrefer])
	})
}
