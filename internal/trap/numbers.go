package trap

import "fmt"

// Number selects the firmware operation performed by a trap.
type Number uint32

// Call numbers understood by the firmware. The set is closed; clients never
// invent new ones.
const (
	Exit    Number = 0x000
	Print   Number = 0x001
	Compare Number = 0x002
	Memset  Number = 0x003
	Delay   Number = 0x010

	WiFiGetMode        Number = 0x100
	WiFiSetMode        Number = 0x101
	WiFiGetChannel     Number = 0x102
	WiFiIsConnected    Number = 0x103
	WiFiConnectStation Number = 0x104
	WiFiIPv4           Number = 0x105

	Close  Number = 0x130
	Write  Number = 0x131
	Listen Number = 0x140
	Accept Number = 0x141
)

// NoHandle is the all-ones value firmware returns from accept when no
// connection is pending. It is never a valid descriptor.
const NoHandle uint32 = 0xFFFFFFFF

var names = map[Number]string{
	Exit:               "exit",
	Print:              "print",
	Compare:            "compare",
	Memset:             "memset",
	Delay:              "delay",
	WiFiGetMode:        "wifi_get_mode",
	WiFiSetMode:        "wifi_set_mode",
	WiFiGetChannel:     "wifi_get_channel",
	WiFiIsConnected:    "wifi_is_connected",
	WiFiConnectStation: "wifi_connect_station",
	WiFiIPv4:           "wifi_ipv4",
	Close:              "close",
	Write:              "write",
	Listen:             "listen",
	Accept:             "accept",
}

// Known reports whether n is part of the firmware call table.
func (n Number) Known() bool {
	_, ok := names[n]
	return ok
}

func (n Number) String() string {
	if name, ok := names[n]; ok {
		return name
	}
	return fmt.Sprintf("call(0x%x)", uint32(n))
}
