package bridge

import "strconv"

func hex(v uint32) string {
	return "0x" + strconv.FormatUint(uint64(v), 16)
}
