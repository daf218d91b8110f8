package message

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeBytes(t *testing.T) {
	for _, tc := range []struct {
		typ  Type
		want byte
	}{
		{InitializePeer, 225},
		{ClockSyncPing, 226},
		{ClockSyncCorrection, 227},
		{SetAbsolute, 228},
		{SetCachedImmediate, 233},
		{ConnectTimeline, 241},
		{DisconnectTimeline, 242},
		{ClockSyncPong, 243},
		{RelayAbsolute, 244},
		{RelayImmediate, 246},
		{CacheSize, 247},
	} {
		t.Run(tc.typ.String(), func(t *testing.T) {
			require.Equal(t, tc.want, byte(tc.typ))
			require.True(t, tc.typ.Known())
		})
	}
	require.False(t, Type(1).Known())
	require.Equal(t, "unknown(1)", Type(1).String())
}

func TestRelayMapping(t *testing.T) {
	for _, tc := range []struct {
		relay, set, cached Type
	}{
		{RelayAbsolute, SetAbsolute, SetCachedAbsolute},
		{RelayRelative, SetRelative, SetCachedRelative},
		{RelayImmediate, SetImmediate, SetCachedImmediate},
	} {
		require.True(t, tc.relay.IsRelay())
		set, ok := tc.relay.SetType()
		require.True(t, ok)
		require.Equal(t, tc.set, set)
		cached, ok := tc.relay.CachedType()
		require.True(t, ok)
		require.Equal(t, tc.cached, cached)
	}
	_, ok := ConnectTimeline.SetType()
	require.False(t, ok)
	_, ok = SetAbsolute.CachedType()
	require.False(t, ok)
}

func TestSetPayloadLayout(t *testing.T) {
	p := SetPayload{Index: 0x0102, Time: 1.5, Value: []byte{9, 8}}
	b := p.Encode()
	require.Len(t, b, SetHeaderSize+2)
	require.Equal(t, []byte{0x02, 0x01}, b[:2])
	require.Equal(t, []byte{9, 8}, b[SetHeaderSize:])

	got, err := DecodeSet(b)
	require.NoError(t, err)
	require.Equal(t, p, got)
}

func TestDecodeTruncated(t *testing.T) {
	_, err := DecodeSet(make([]byte, SetHeaderSize-1))
	require.ErrorIs(t, err, ErrTruncated)
	_, err = DecodePong(make([]byte, 15))
	require.ErrorIs(t, err, ErrTruncated)
	_, err = DecodeTime(nil)
	require.ErrorIs(t, err, ErrTruncated)
	_, err = DecodeCorrection([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrTruncated)
	_, err = DecodeCacheSize([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrTruncated)
	_, err = DecodeConnectTimeline([]byte{1})
	require.ErrorIs(t, err, ErrTruncated)
	_, err = DecodeIndex([]byte{1})
	require.ErrorIs(t, err, ErrTruncated)
	_, err = WithIndex(New(RelayAbsolute, []byte{1}, Unreliable), SetAbsolute, 3)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestPayloads(t *testing.T) {
	conn, err := DecodeConnectTimeline(ConnectTimelinePayload{Index: 7, ID: []byte("x")}.Encode())
	require.NoError(t, err)
	require.Equal(t, ConnectTimelinePayload{Index: 7, ID: []byte("x")}, conn)

	pong, err := DecodePong(PongPayload{PingTime: -1, PongTime: math.MaxFloat64}.Encode())
	require.NoError(t, err)
	require.Equal(t, PongPayload{PingTime: -1, PongTime: math.MaxFloat64}, pong)

	corr, err := DecodeCorrection(EncodeCorrection(-0.25))
	require.NoError(t, err)
	require.Equal(t, float32(-0.25), corr)

	cs, err := DecodeCacheSize(CacheSizePayload{Index: 1, Size: 65535}.Encode())
	require.NoError(t, err)
	require.Equal(t, CacheSizePayload{Index: 1, Size: 65535}, cs)

	idx, err := DecodeIndex(EncodeIndex(513))
	require.NoError(t, err)
	require.Equal(t, uint16(513), idx)
}

func TestWithIndex(t *testing.T) {
	orig := New(RelayAbsolute, SetPayload{Index: 1, Time: 2, Value: []byte{3}}.Encode(), Sequenced)
	remapped, err := WithIndex(orig, SetCachedAbsolute, 42)
	require.NoError(t, err)
	require.Equal(t, SetCachedAbsolute, remapped.Type)
	require.Equal(t, Sequenced, remapped.Delivery)

	got, err := DecodeSet(remapped.Payload)
	require.NoError(t, err)
	require.Equal(t, uint16(42), got.Index)
	require.Equal(t, 2.0, got.Time)

	before, err := DecodeSet(orig.Payload)
	require.NoError(t, err)
	require.Equal(t, uint16(1), before.Index)
}
