package schema_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/niksmo/producthub/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSchemaIdentifier struct {
	mock.Mock
}

func (c *MockSchemaIdentifier) DetermineID(
	ctx context.Context, subject string, avroSchemaText string,
) (id int, err error) {
	args := c.Called(ctx, subject, avroSchemaText)
	return args.Int(0), args.Error(1)
}

func TestSerdeClientEventV1(t *testing.T) {

	t.Run("NoOpts", func(t *testing.T) {
		_, err := schema.NewSerdeClientEventV1(t.Context())
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrTooFewOpts)
	})

	t.Run("OneOpt", func(t *testing.T) {
		_, err := schema.NewSerdeClientEventV1(
			t.Context(),
			schema.SchemaIdentifierOpt(new(MockSchemaIdentifier)),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrTooFewOpts)
	})

	t.Run("IdentifierAndSubjectOpts", func(t *testing.T) {
		schemaIdentifier := new(MockSchemaIdentifier)
		schemaID := 1
		subject := "producthub.client-events-value"

		schemaIdentifier.On(
			"DetermineID", t.Context(), subject, schema.ClientEventSchemaTextV1,
		).Return(schemaID, nil)

		_, err := schema.NewSerdeClientEventV1(
			t.Context(),
			schema.SubjectOpt(subject),
			schema.SchemaIdentifierOpt(schemaIdentifier),
		)
		require.NoError(t, err)
	})

	t.Run("EncodeDecode", func(t *testing.T) {
		schemaIdentifier := new(MockSchemaIdentifier)
		schemaID := 1
		subject := "producthub.client-events-value"

		schemaIdentifier.On(
			"DetermineID", t.Context(), subject, schema.ClientEventSchemaTextV1,
		).Return(schemaID, nil)

		serde, err := schema.NewSerdeClientEventV1(
			t.Context(),
			schema.SubjectOpt(subject),
			schema.SchemaIdentifierOpt(schemaIdentifier),
		)
		require.NoError(t, err)

		evt1 := schema.ClientEventV1{
			Kind:       "favorite_toggle",
			ClientID:   "testClientID",
			ProductID:  42,
			Value:      "added",
			OccurredAt: time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC),
		}

		encodedData, err := serde.Encode(evt1)
		require.NoError(t, err)
		assert.Equal(t, byte(0), encodedData[0], "wire format magic byte")

		var evt2 schema.ClientEventV1
		err = serde.Decode(encodedData, &evt2)
		require.NoError(t, err)

		assert.Equal(t, evt1.Kind, evt2.Kind)
		assert.Equal(t, evt1.ClientID, evt2.ClientID)
		assert.Equal(t, evt1.ProductID, evt2.ProductID)
		assert.Empty(t, evt2.Query)
		assert.Equal(t, evt1.Value, evt2.Value)
		assert.True(t, evt1.OccurredAt.Equal(evt2.OccurredAt))
	})

	t.Run("IdentifierFails", func(t *testing.T) {
		schemaIdentifier := new(MockSchemaIdentifier)
		errRegistry := errors.New("registry unavailable")
		schemaIdentifier.On(
			"DetermineID", mock.Anything, mock.Anything, mock.Anything,
		).Return(0, errRegistry)

		_, err := schema.NewSerdeClientEventV1(
			t.Context(),
			schema.SubjectOpt("subject"),
			schema.SchemaIdentifierOpt(schemaIdentifier),
		)
		assert.ErrorIs(t, err, errRegistry)
	})

	t.Run("EmptySubject", func(t *testing.T) {
		_, err := schema.NewSerdeClientEventV1(
			t.Context(),
			schema.SubjectOpt(""),
			schema.SchemaIdentifierOpt(new(MockSchemaIdentifier)),
		)
		assert.Error(t, err)
	})

}
