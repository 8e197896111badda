package rest_test

import (
	"encoding/base64"
	"strconv"
)

func jsonID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func encodeKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}
