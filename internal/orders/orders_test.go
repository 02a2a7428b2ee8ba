package orders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedSeed(t *testing.T) {
	idx, err := Load("")
	require.NoError(t, err)
	require.NotZero(t, idx.Len())

	order := idx.Get("ORD-1001")
	require.NotNil(t, order)
	assert.Equal(t, "ORD-1001", order.OrderNumber)
	assert.NotEmpty(t, order.FromAddress.PostalCode)
	assert.NotEmpty(t, order.ToAddress.PostalCode)
	assert.Positive(t, order.Parcel.Weight)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{
			"orderNumber": "X-1",
			"fromAddress": {"addressLine1":"1 A St","cityTown":"Austin","stateProvince":"TX","postalCode":"78701"},
			"toAddress": {"addressLine1":"2 B St","cityTown":"Boston","stateProvince":"MA","postalCode":"02108"},
			"parcel": {"length":1,"width":1,"height":1,"dimUnit":"IN","weight":1,"weightUnit":"LB"}
		}
	]`), 0o644))

	idx, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
	require.NotNil(t, idx.Get("X-1"))
	assert.Nil(t, idx.Get("ORD-1001"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestDescriptorValidatesAgainstProvider(t *testing.T) {
	// Every seed order must produce a descriptor that passes validation,
	// otherwise rate shopping by order number can never work.
	idx, err := Load("")
	require.NoError(t, err)

	for _, number := range []string{"ORD-1001", "ORD-1002", "ORD-1003"} {
		order := idx.Get(number)
		require.NotNil(t, order, number)

		descriptor := order.Descriptor()
		assert.NoError(t, descriptor.Validate(), number)
		assert.Equal(t, order.FromAddress, descriptor.FromAddress, number)
		assert.Equal(t, order.Parcel, descriptor.Parcel, number)
	}
}
