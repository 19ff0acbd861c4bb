package handler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/wifi-coverage-go/internal/models"
	"github.com/jengzang/wifi-coverage-go/internal/rssi"
)

func decodeRequest(t *testing.T, body string) submitRequest {
	t.Helper()
	var req submitRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return req
}

func TestToSubmissionCurrentFields(t *testing.T) {
	req := decodeRequest(t, `{
		"node_id": "n1",
		"readings": [
			{"access_point_id": "aa:01", "signal_strength_dbm": -51.5, "band": "5GHz", "display_name": "lab", "channel": 36}
		],
		"position": {"x": 3, "y": "4.5"}
	}`)
	sub, err := req.toSubmission()
	require.NoError(t, err)

	assert.Equal(t, "n1", sub.NodeID)
	require.Len(t, sub.Readings, 1)
	r := sub.Readings[0]
	assert.Equal(t, "aa:01", r.AccessPointID)
	require.NotNil(t, r.SignalStrengthDbm)
	assert.Equal(t, -51.5, *r.SignalStrengthDbm)
	assert.Equal(t, rssi.Band5GHz, r.Band)
	assert.Equal(t, "lab", r.DisplayName)
	assert.Equal(t, &models.Position{X: 3, Y: 4.5}, sub.Position)
}

func TestToSubmissionLegacyFields(t *testing.T) {
	req := decodeRequest(t, `{
		"laptop_id": "laptop-2",
		"networks": [
			{"bssid": "bb:02", "ssid": "guest", "rssi": "-67", "band": "2.4 GHz", "signal_percent": 66},
			{"bssid": "bb:03", "rssi": "n/a", "band": 5},
			{"bssid": "bb:04"}
		],
		"position": {"x": "left", "y": 2}
	}`)
	sub, err := req.toSubmission()
	require.NoError(t, err)

	assert.Equal(t, "laptop-2", sub.NodeID)
	require.Len(t, sub.Readings, 3)
	assert.Equal(t, -67.0, *sub.Readings[0].SignalStrengthDbm)
	assert.Equal(t, rssi.Band24GHz, sub.Readings[0].Band)
	assert.Equal(t, "guest", sub.Readings[0].DisplayName)

	assert.Nil(t, sub.Readings[1].SignalStrengthDbm)
	assert.Equal(t, rssi.Band5GHz, sub.Readings[1].Band)
	assert.Nil(t, sub.Readings[2].SignalStrengthDbm)
	assert.Equal(t, rssi.BandUnknown, sub.Readings[2].Band)

	// an unusable position is ignored rather than rejected
	assert.Nil(t, sub.Position)
}

func TestToSubmissionMalformed(t *testing.T) {
	cases := map[string]string{
		"no node id":        `{"readings": []}`,
		"blank node id":     `{"node_id": "  ", "readings": []}`,
		"no readings array": `{"node_id": "n1"}`,
		"reading without id": `{"node_id": "n1", "readings": [{"rssi": -40}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decodeRequest(t, body).toSubmission()
			assert.ErrorIs(t, err, errMalformed)
		})
	}
}

func TestToSubmissionEmptyReadings(t *testing.T) {
	sub, err := decodeRequest(t, `{"node_id": "n1", "readings": []}`).toSubmission()
	require.NoError(t, err)
	assert.Empty(t, sub.Readings)
}

func TestToFloat(t *testing.T) {
	v, ok := toFloat(-40.0)
	assert.True(t, ok)
	assert.Equal(t, -40.0, v)

	_, ok = toFloat("NaN")
	assert.False(t, ok)
	_, ok = toFloat(nil)
	assert.False(t, ok)
	_, ok = toFloat(true)
	assert.False(t, ok)
}
