package iface

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIfconfig keeps a per-interface address and records every step.
type fakeIfconfig struct {
	available bool
	macs      map[string]string
	steps     []string
	failSet   bool
	failDown  bool
	failQuery bool
}

func newFakeIfconfig(iface, mac string) *fakeIfconfig {
	return &fakeIfconfig{available: true, macs: map[string]string{iface: mac}}
}

func (f *fakeIfconfig) Available() bool { return f.available }

func (f *fakeIfconfig) HardwareAddr(_ context.Context, iface string) (string, error) {
	if f.failQuery {
		return "", errors.New("no such device")
	}
	return f.macs[iface], nil
}

func (f *fakeIfconfig) Down(_ context.Context, iface string) error {
	f.steps = append(f.steps, iface+" down")
	if f.failDown {
		return errors.New("down failed")
	}
	return nil
}

func (f *fakeIfconfig) Up(_ context.Context, iface string) error {
	f.steps = append(f.steps, iface+" up")
	return nil
}

func (f *fakeIfconfig) SetHardwareAddr(_ context.Context, iface, mac string) error {
	f.steps = append(f.steps, iface+" hw ether "+mac)
	if f.failSet {
		return errors.New("set failed")
	}
	f.macs[iface] = mac
	return nil
}

func quiet(m *IdentityManager) *IdentityManager {
	m.Status = func(string, ...any) {}
	return m
}

func TestIdentity_RandomizeThenRestore(t *testing.T) {
	ctx := context.Background()
	fake := newFakeIfconfig("wlan0", "00:11:22:33:44:55")
	m := quiet(NewIdentityManager(fake, false, true))

	require.NoError(t, m.Randomize(ctx, "wlan0"))

	changed := fake.macs["wlan0"]
	assert.NotEqual(t, "00:11:22:33:44:55", changed)
	assert.True(t, strings.HasPrefix(changed, "00:11:22:"))
	orig, ok := m.Recorded("wlan0")
	assert.True(t, ok)
	assert.Equal(t, "00:11:22:33:44:55", orig)

	require.NoError(t, m.Restore(ctx))
	assert.Equal(t, "00:11:22:33:44:55", fake.macs["wlan0"])
	assert.Equal(t, []string{
		"wlan0 down", "wlan0 hw ether " + changed, "wlan0 up",
		"wlan0 down", "wlan0 hw ether 00:11:22:33:44:55", "wlan0 up",
	}, fake.steps)

	_, ok = m.Recorded("wlan0")
	assert.False(t, ok)
}

func TestIdentity_RestoreRunsOnce(t *testing.T) {
	ctx := context.Background()
	fake := newFakeIfconfig("wlan0", "00:11:22:33:44:55")
	m := quiet(NewIdentityManager(fake, false, false))

	require.NoError(t, m.Randomize(ctx, "wlan0"))
	require.NoError(t, m.Restore(ctx))
	steps := len(fake.steps)

	require.NoError(t, m.Restore(ctx))
	assert.Len(t, fake.steps, steps, "second restore has nothing recorded")
}

func TestIdentity_RepeatedRandomizeKeepsFirstOriginal(t *testing.T) {
	ctx := context.Background()
	fake := newFakeIfconfig("wlan0", "00-11-22-33-44-55")
	m := quiet(NewIdentityManager(fake, false, false))

	require.NoError(t, m.Randomize(ctx, "wlan0"))
	require.NoError(t, m.Randomize(ctx, "wlan0"))

	orig, _ := m.Recorded("wlan0")
	assert.Equal(t, "00-11-22-33-44-55", orig)

	require.NoError(t, m.Restore(ctx))
	assert.Equal(t, "00:11:22:33:44:55", fake.macs["wlan0"], "restored in canonical form")
}

func TestIdentity_NoOps(t *testing.T) {
	ctx := context.Background()

	t.Run("keep MAC", func(t *testing.T) {
		fake := newFakeIfconfig("wlan0", "00:11:22:33:44:55")
		m := quiet(NewIdentityManager(fake, true, true))
		require.NoError(t, m.Randomize(ctx, "wlan0"))
		require.NoError(t, m.Restore(ctx))
		assert.Empty(t, fake.steps)
	})

	t.Run("tool missing", func(t *testing.T) {
		fake := newFakeIfconfig("wlan0", "00:11:22:33:44:55")
		fake.available = false
		m := quiet(NewIdentityManager(fake, false, true))
		require.NoError(t, m.Randomize(ctx, "wlan0"))
		require.NoError(t, m.Restore(ctx))
		assert.Empty(t, fake.steps)
	})

	t.Run("restore without randomize", func(t *testing.T) {
		fake := newFakeIfconfig("wlan0", "00:11:22:33:44:55")
		require.NoError(t, quiet(NewIdentityManager(fake, false, false)).Restore(ctx))
		assert.Empty(t, fake.steps)
	})
}

func TestIdentity_QueryFailureRecordsNothing(t *testing.T) {
	fake := newFakeIfconfig("wlan0", "00:11:22:33:44:55")
	fake.failQuery = true
	m := quiet(NewIdentityManager(fake, false, false))

	assert.Error(t, m.Randomize(context.Background(), "wlan0"))
	_, ok := m.Recorded("wlan0")
	assert.False(t, ok)
}

func TestIdentity_MalformedQueryRecordsNothing(t *testing.T) {
	ctx := context.Background()
	fake := newFakeIfconfig("wlan0", "unknown")
	m := quiet(NewIdentityManager(fake, false, false))

	err := m.Randomize(ctx, "wlan0")
	assert.ErrorIs(t, err, ErrBadHardwareAddr)
	_, ok := m.Recorded("wlan0")
	assert.False(t, ok)

	require.NoError(t, m.Restore(ctx))
	assert.Empty(t, fake.steps)
}

func TestIdentity_FailedApplyStillRestorable(t *testing.T) {
	ctx := context.Background()
	fake := newFakeIfconfig("wlan0", "00:11:22:33:44:55")
	fake.failSet = true
	m := quiet(NewIdentityManager(fake, false, false))

	require.Error(t, m.Randomize(ctx, "wlan0"))
	assert.Equal(t, "wlan0 up", fake.steps[len(fake.steps)-1], "interface brought back up")

	_, ok := m.Recorded("wlan0")
	assert.True(t, ok)
}

func TestIdentity_RestoreContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	fake := newFakeIfconfig("wlan0", "00:11:22:33:44:55")
	fake.macs["wlan1"] = "66:77:88:99:aa:bb"
	m := quiet(NewIdentityManager(fake, false, false))

	require.NoError(t, m.Randomize(ctx, "wlan0"))
	require.NoError(t, m.Randomize(ctx, "wlan1"))
	fake.steps = nil
	fake.failDown = true

	err := m.Restore(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "restore wlan0")
	assert.Contains(t, err.Error(), "restore wlan1")

	// every step ran for both interfaces despite the failing down
	assert.Len(t, fake.steps, 6)
	assert.Equal(t, "00:11:22:33:44:55", fake.macs["wlan0"])
	assert.Equal(t, "66:77:88:99:aa:bb", fake.macs["wlan1"])
}

func TestRandomizeMAC(t *testing.T) {
	for _, orig := range []string{"00:11:22:33:44:55", "AA-BB-CC-DD-EE-FF", "0a:1B:2c:3D:4e:5F"} {
		for i := 0; i < 200; i++ {
			mac, err := RandomizeMAC(orig)
			require.NoError(t, err)

			assert.Equal(t, strings.ToLower(strings.ReplaceAll(orig[:8], "-", ":")), mac[:8])
			assert.NotEqual(t, canonicalMAC(orig), mac)
			assert.Equal(t, strings.ToLower(mac), mac)
			assert.Regexp(t, `^[0-9a-f]{2}(:[0-9a-f]{2}){5}$`, mac)
		}
	}
}

func TestRandomizeMAC_RegeneratesOnCollision(t *testing.T) {
	orig := randByte
	seq := []byte{0x33, 0x44, 0x55, 0x33, 0x44, 0x56}
	i := 0
	randByte = func() byte {
		b := seq[i%len(seq)]
		i++
		return b
	}
	t.Cleanup(func() { randByte = orig })

	mac, err := RandomizeMAC("00:11:22:33:44:55")
	require.NoError(t, err)
	assert.Equal(t, "00:11:22:33:44:56", mac)
	assert.Equal(t, 6, i, "first draw collided and was discarded")
}

func TestRandomizeMAC_Malformed(t *testing.T) {
	for _, bad := range []string{"", "00:11:22", "zz:11:22:33:44:55", "00:11:22:33:44:55:66"} {
		_, err := RandomizeMAC(bad)
		assert.ErrorIs(t, err, ErrBadHardwareAddr, fmt.Sprintf("input %q", bad))
	}
}

func TestPickInterface(t *testing.T) {
	ifaces := []WirelessInterface{{Name: "wlan0"}, {Name: "wlan1mon", Monitor: true}}

	wi, err := pickInterface(ifaces, "")
	require.NoError(t, err)
	assert.Equal(t, "wlan1mon", wi.Name)

	wi, err = pickInterface(ifaces, "wlan0")
	require.NoError(t, err)
	assert.Equal(t, "wlan0", wi.Name)

	_, err = pickInterface(ifaces, "wlan9")
	assert.ErrorIs(t, err, ErrNoInterface)

	_, err = pickInterface(nil, "")
	assert.ErrorIs(t, err, ErrNoInterface)
}
