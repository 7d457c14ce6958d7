package proto

// stringValue returns the string at key, or "" when the key is absent or
// holds another type. Devices in the field omit optional keys freely.
func stringValue(dict map[string]interface{}, key string) string {
	s, _ := dict[key].(string)
	return s
}

func int64Value(dict map[string]interface{}, key string) int64 {
	f, _ := dict[key].(float64)
	return int64(f)
}

func int64SliceValue(dict map[string]interface{}, key string) []int64 {
	vals, ok := dict[key].([]interface{})
	if !ok {
		return nil
	}

	ids := make([]int64, 0, len(vals))
	for _, v := range vals {
		f, ok := v.(float64)
		if !ok {
			continue
		}
		ids = append(ids, int64(f))
	}

	return ids
}
