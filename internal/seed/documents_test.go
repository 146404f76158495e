package seed

import (
	"context"
	"io"
	"math/rand"
	"testing"

	"civicportal/internal/document"
	"civicportal/internal/document/documenttest"
	"civicportal/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedFieldsPassValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for _, docType := range types.AllDocumentTypes {
		for i := 0; i < 20; i++ {
			_, err := document.Validate(docType, seedFields(docType, rng))
			require.NoError(t, err, "type %s", docType)
		}
	}
}

func TestSeedDocuments(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := documenttest.NewStore()
	svc := document.New(store, store, documenttest.NewGenerator(), logger)
	admin := &types.Actor{ID: "seed-admin", Role: types.RoleAdmin}

	result, err := SeedDocuments(context.Background(), svc, admin, 25, rand.New(rand.NewSource(42)), logger)
	require.NoError(t, err)

	assert.Equal(t, 25, result.Submitted)

	counts, err := store.DocumentCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25, counts.Total)
	assert.Equal(t, result.Approved, counts.Approved)
	assert.Equal(t, result.Rejected, counts.Rejected)
	assert.Len(t, store.Activity(), result.Approved+result.Rejected)
}

func TestSeedDocumentsSkipsNonPositiveCount(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := documenttest.NewStore()
	svc := document.New(store, store, documenttest.NewGenerator(), logger)

	result, err := SeedDocuments(context.Background(), svc, nil, 0, rand.New(rand.NewSource(1)), logger)
	require.NoError(t, err)
	assert.Zero(t, result.Submitted)
}
