package dcc

import (
	"encoding/binary"
	"net"
	"strconv"
)

// EncodeAddress converts a dotted IPv4 address into the decimal form DCC
// requests carry. Anything that is not IPv4 is returned unchanged.
func EncodeAddress(addr string) string {
	ip := net.ParseIP(addr).To4()
	if ip == nil {
		return addr
	}
	return strconv.FormatUint(uint64(binary.BigEndian.Uint32(ip)), 10)
}

// DecodeAddress converts the decimal DCC form back into a dotted IPv4
// address. Values that are not a 32-bit decimal are returned unchanged, so
// IPv6 literals pass through.
func DecodeAddress(value string) string {
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return value
	}
	ip := make(net.IP, net.IPv4len)
	binary.BigEndian.PutUint32(ip, uint32(n))
	return ip.String()
}
