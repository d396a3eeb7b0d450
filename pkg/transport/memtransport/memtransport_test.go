package memtransport_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brahimab8/powerscope-core/pkg/transport/memtransport"
)

func TestLink_DeliversWritesToPeerRXHandler(t *testing.T) {
	a := memtransport.New()
	b := memtransport.New()
	memtransport.Link(a, b)

	var got []byte
	b.SetRXHandler(func(data []byte) { got = append(got, data...) })

	n, err := a.TxWrite([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []byte{1, 2, 3}, got)
	require.Equal(t, [][]byte{{1, 2, 3}}, a.Writes)
}

func TestSetReady_BlocksWrites(t *testing.T) {
	a := memtransport.New()
	a.SetReady(false)
	n, err := a.TxWrite([]byte{1})
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.Empty(t, a.Writes)
}
