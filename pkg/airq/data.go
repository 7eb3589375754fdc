package airq

import (
	"context"
	"slices"
	"strings"
)

const statusKey = "Status"

// sensorSuffixes are appended by the firmware to readings of specific
// particulate sensor models, e.g. "pm2_5_SPS30".
var sensorSuffixes = []string{"_SPS30"}

// LatestDataOptions controls the post-processing done by LatestData.
type LatestDataOptions struct {
	// Current selects /data instead of the firmware average.
	Current bool
	// KeepNegative disables clipping of negative readings to zero.
	KeepNegative bool
	// KeepUncertainties keeps [value, uncertainty] pairs.
	KeepUncertainties bool
	// KeepOriginalKeys keeps sensor-model suffixes in key names.
	KeepOriginalKeys bool
}

// LatestData fetches the averaged (default) or current readings and
// normalises them: negative values clipped, uncertainties dropped and
// sensor suffixes stripped, unless opts says otherwise.
func (c *Client) LatestData(ctx context.Context, opts LatestDataOptions) (Response, error) {
	var (
		data Response
		err  error
	)
	if opts.Current {
		data, err = c.FetchCurrentData(ctx)
	} else {
		data, err = c.FetchAverageData(ctx)
	}
	if err != nil {
		return nil, err
	}

	if !opts.KeepNegative {
		data = ClipNegativeValues(data)
	}
	if !opts.KeepUncertainties {
		data = DropUncertainties(data)
	}
	if !opts.KeepOriginalKeys {
		data = StripSensorSuffixes(data)
	}
	return data, nil
}

// DropUncertainties replaces every [value, uncertainty] pair with value.
// An empty list becomes nil.
func DropUncertainties(data Response) Response {
	out := make(Response, len(data))
	for k, v := range data {
		if list, ok := v.([]any); ok {
			if len(list) == 0 {
				out[k] = nil
				continue
			}
			out[k] = list[0]
			continue
		}
		out[k] = v
	}
	return out
}

// ClipNegativeValues raises negative readings to zero. Only the value of a
// [value, uncertainty] pair is clipped.
func ClipNegativeValues(data Response) Response {
	out := make(Response, len(data))
	for k, v := range data {
		switch value := v.(type) {
		case float64:
			out[k] = max(0, value)
		case []any:
			clipped := slices.Clone(value)
			if len(clipped) > 0 {
				if f, ok := clipped[0].(float64); ok {
					clipped[0] = max(0, f)
				}
			}
			out[k] = clipped
		default:
			out[k] = v
		}
	}
	return out
}

// StripSensorSuffixes renames e.g. "pm1_SPS30" to "pm1". A key that
// already exists without the suffix wins over the suffixed one.
func StripSensorSuffixes(data Response) Response {
	out := make(Response, len(data))
	for k, v := range data {
		if _, renamed := trimSensorSuffix(k); !renamed {
			out[k] = v
		}
	}
	for k, v := range data {
		if base, renamed := trimSensorSuffix(k); renamed {
			if _, exists := out[base]; !exists {
				out[base] = v
			}
		}
	}
	return out
}

func trimSensorSuffix(key string) (string, bool) {
	for _, suffix := range sensorSuffixes {
		if base, ok := strings.CutSuffix(key, suffix); ok && base != "" {
			return base, true
		}
	}
	return key, false
}

// WarmingUpSensors returns the sorted names of sensors that the Status
// field reports as still warming up. Status is "OK" when all sensors are
// ready and an object of sensor messages otherwise.
func WarmingUpSensors(data Response) []string {
	status, ok := data[statusKey].(map[string]any)
	if !ok {
		return nil
	}
	var sensors []string
	for sensor, message := range status {
		if text, ok := message.(string); ok && strings.Contains(text, "warm up") {
			sensors = append(sensors, sensor)
		}
	}
	slices.Sort(sensors)
	return sensors
}
