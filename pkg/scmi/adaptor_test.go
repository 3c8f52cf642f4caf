package scmi

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secclk/clkcore/pkg/clk"
	"github.com/secclk/clkcore/pkg/wire"
)

// divider is a 1..n divider that can list its rates.
type divider struct {
	div uint64
	max uint64
}

func (d *divider) Rate(parent uint64) uint64 { return parent / d.div }

func (d *divider) SetRate(rate, parent uint64) error {
	if rate == 0 || parent%rate != 0 || parent/rate > d.max {
		return fmt.Errorf("%w: %d from %d", clk.ErrUnsupportedRate, rate, parent)
	}
	d.div = parent / rate
	return nil
}

func (d *divider) Rates(parent uint64) []uint64 {
	out := make([]uint64, 0, d.max)
	for i := uint64(1); i <= d.max; i++ {
		out = append(out, parent/i)
	}
	return out
}

type testTree struct {
	tree    *clk.Tree
	osc     *clk.Node
	div     *clk.Node
	gate    *clk.Node
	broken  *clk.Node
	offered *clk.Node
}

func newTestTree(t *testing.T) *testTree {
	t.Helper()
	tr := clk.NewTree()
	tt := &testTree{tree: tr}
	tt.osc = tr.MustRegister(clk.NewFixed("osc", 480000000))
	tt.div = tr.MustRegister(clk.New("div", &divider{div: 1, max: 40}, 0, tt.osc))
	tt.gate = tr.MustRegister(clk.New("gate", &clk.Gate{}, clk.FlagSetRateParent, tt.div))
	tt.broken = tr.MustRegister(clk.New("broken", &clk.Gate{On: func() error { return errors.New("stuck") }}, 0, tt.osc))
	tt.offered = tr.MustRegister(clk.New("fixed_gate", &clk.Gate{}, 0, tt.osc))
	return tt
}

func newTestAdaptor(t *testing.T) (*Adaptor, *testTree) {
	t.Helper()
	tt := newTestTree(t)
	a := NewAdaptor(tt.tree)
	require.NoError(t, a.Bind(tt.osc, 0, 0))
	require.NoError(t, a.Bind(tt.div, 0, 1))
	require.NoError(t, a.Bind(tt.gate, 0, 2))
	require.NoError(t, a.Bind(tt.broken, 0, 3))
	require.NoError(t, a.Bind(tt.offered, 0, 5))
	return a, tt
}

func TestAdaptorBind(t *testing.T) {
	t.Run("duplicate id leaves table unchanged", func(t *testing.T) {
		a, tt := newTestAdaptor(t)

		err := a.Bind(tt.gate, 0, 1)
		assert.ErrorIs(t, err, ErrDuplicateBinding)

		n, err := a.Lookup(0, 1)
		require.NoError(t, err)
		assert.Same(t, tt.div, n)
	})

	t.Run("same id on another channel", func(t *testing.T) {
		a, tt := newTestAdaptor(t)
		require.NoError(t, a.Bind(tt.gate, 1, 1))
		assert.Equal(t, 2, a.Count(1))
	})

	t.Run("name too long", func(t *testing.T) {
		tr := clk.NewTree()
		n := tr.MustRegister(clk.NewFixed("sixteen_chars_xx", 1))
		a := NewAdaptor(tr)
		assert.ErrorIs(t, a.Bind(n, 0, 0), clk.ErrInvalidArgument)
		assert.Zero(t, a.Count(0))

		ok := tr.MustRegister(clk.NewFixed("fifteen_chars_x", 1))
		assert.NoError(t, a.Bind(ok, 0, 0))
	})

	t.Run("unregistered node", func(t *testing.T) {
		a := NewAdaptor(clk.NewTree())
		assert.ErrorIs(t, a.Bind(clk.NewFixed("loose", 1), 0, 0), clk.ErrInvalidArgument)
		assert.ErrorIs(t, a.Bind(nil, 0, 0), clk.ErrInvalidArgument)
	})

	t.Run("bind all", func(t *testing.T) {
		tt := newTestTree(t)
		a := NewAdaptor(tt.tree)
		require.NoError(t, a.BindAll(7, []*clk.Node{tt.osc, tt.div}))
		bs := a.Bindings(7)
		require.Len(t, bs, 2)
		assert.Equal(t, uint32(1), bs[1].ID)
		assert.Same(t, tt.div, bs[1].Node)
	})
}

func TestAdaptorQueries(t *testing.T) {
	a, _ := newTestAdaptor(t)

	t.Run("count is max id plus one", func(t *testing.T) {
		assert.Equal(t, 6, a.Count(0))
		assert.Zero(t, a.Count(9))
	})

	t.Run("name", func(t *testing.T) {
		name, err := a.Name(0, 2)
		require.NoError(t, err)
		assert.Equal(t, "gate", name)

		_, err = a.Name(0, 4)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, clk.ErrInvalidArgument)
	})

	t.Run("rate", func(t *testing.T) {
		rate, err := a.Rate(0, 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(480000000), rate)
	})
}

func TestAdaptorSetRate(t *testing.T) {
	t.Run("divider", func(t *testing.T) {
		a, _ := newTestAdaptor(t)
		require.NoError(t, a.SetRate(0, 1, 48000000))
		rate, _ := a.Rate(0, 1)
		assert.Equal(t, uint64(48000000), rate)
	})

	t.Run("forwarding gate", func(t *testing.T) {
		a, _ := newTestAdaptor(t)
		require.NoError(t, a.SetRate(0, 2, 120000000))
		rate, _ := a.Rate(0, 2)
		assert.Equal(t, uint64(120000000), rate)
	})

	t.Run("read only", func(t *testing.T) {
		a, _ := newTestAdaptor(t)
		err := a.SetRate(0, 5, 1000)
		assert.ErrorIs(t, err, ErrNotSupported)
		assert.Equal(t, wire.StatusNotSupported, StatusOf(err))
	})

	t.Run("unsupported", func(t *testing.T) {
		a, _ := newTestAdaptor(t)
		err := a.SetRate(0, 1, 7)
		assert.Equal(t, wire.StatusInvalidParameters, StatusOf(err))
	})

	t.Run("unbound", func(t *testing.T) {
		a, _ := newTestAdaptor(t)
		assert.Equal(t, wire.StatusNotFound, StatusOf(a.SetRate(0, 4, 1)))
	})
}

func TestAdaptorState(t *testing.T) {
	t.Run("enable holds one reference", func(t *testing.T) {
		a, tt := newTestAdaptor(t)

		require.NoError(t, a.SetState(0, 2, true))
		require.NoError(t, a.SetState(0, 2, true))
		assert.Equal(t, 1, tt.tree.EnableCount(tt.gate))
		assert.Equal(t, 1, tt.tree.EnableCount(tt.div))

		on, err := a.State(0, 2)
		require.NoError(t, err)
		assert.True(t, on)

		require.NoError(t, a.SetState(0, 2, false))
		require.NoError(t, a.SetState(0, 2, false))
		assert.Zero(t, tt.tree.EnableCount(tt.gate))
		assert.Zero(t, tt.tree.EnableCount(tt.osc))
	})

	t.Run("enable failure is generic", func(t *testing.T) {
		a, tt := newTestAdaptor(t)
		err := a.SetState(0, 3, true)
		assert.ErrorIs(t, err, ErrEnableFailed)
		assert.Equal(t, wire.StatusGenericError, StatusOf(err))
		assert.Zero(t, tt.tree.EnableCount(tt.osc))

		on, _ := a.State(0, 3)
		assert.False(t, on)
	})

	t.Run("unbound", func(t *testing.T) {
		a, _ := newTestAdaptor(t)
		_, err := a.State(1, 0)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, a.SetState(1, 0, true), ErrNotFound)
	})
}

func TestAdaptorListRates(t *testing.T) {
	t.Run("paged lister", func(t *testing.T) {
		a, _ := newTestAdaptor(t)

		page, more, err := a.ListRates(0, 1, 0)
		require.NoError(t, err)
		assert.Len(t, page, MaxRatesPerReply)
		assert.True(t, more)
		assert.Equal(t, uint64(480000000), page[0])

		page, more, err = a.ListRates(0, 1, 32)
		require.NoError(t, err)
		assert.Len(t, page, 8)
		assert.False(t, more)
		assert.Equal(t, uint64(12000000), page[7])

		_, _, err = a.ListRates(0, 1, 40)
		assert.ErrorIs(t, err, clk.ErrInvalidArgument)
	})

	t.Run("forwarding node lists its parent", func(t *testing.T) {
		a, _ := newTestAdaptor(t)
		page, _, err := a.ListRates(0, 2, 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(240000000), page[1])
	})

	t.Run("single entry from current rate", func(t *testing.T) {
		a, _ := newTestAdaptor(t)
		page, more, err := a.ListRates(0, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, []uint64{480000000}, page)
		assert.False(t, more)

		_, _, err = a.ListRates(0, 0, 1)
		assert.Error(t, err)
	})
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want wire.Status
	}{
		{nil, wire.StatusSuccess},
		{clk.ErrBusy, wire.StatusBusy},
		{clk.ErrOutOfRange, wire.StatusOutOfRange},
		{clk.ErrUnsupportedRate, wire.StatusInvalidParameters},
		{clk.ErrInvalidArgument, wire.StatusInvalidParameters},
		{clk.ErrHardware, wire.StatusHardwareError},
		{ErrNotFound, wire.StatusNotFound},
		{ErrNotSupported, wire.StatusNotSupported},
		{wire.ErrInvalidPayload, wire.StatusProtocolError},
		{errors.New("other"), wire.StatusGenericError},
		{fmt.Errorf("wrapped: %w", clk.ErrBusy), wire.StatusBusy},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, StatusOf(tc.err), "%v", tc.err)
	}
}
