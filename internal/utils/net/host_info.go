package net

import (
	"net"
	"os"
)

// DefaultMacRaw 取不到网卡时使用的 MAC
var DefaultMacRaw = []byte{'u', 'n', 'k', 'n', 'o', 'w'}

type hostInfo struct {
	hostName      string
	processId     int
	rawMacAddress [][]byte
}

func (h *hostInfo) refresh() {
	//主机名
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	h.hostName = hostname
	//进程id
	h.processId = os.Getpid()
	//网卡信息, 取不到时使用默认值
	interfaces, err := net.Interfaces()
	if err != nil {
		return
	}
	for _, inter := range interfaces {
		if inter.Flags&net.FlagUp == 0 ||
			inter.Flags&net.FlagLoopback != 0 ||
			inter.Flags&net.FlagPointToPoint != 0 {
			continue
		}
		mac := []byte(inter.HardwareAddr)
		if len(mac) == 0 {
			continue
		}
		h.rawMacAddress = append(h.rawMacAddress, mac)
	}
}

// 对外接口
var hi *hostInfo

func init() {
	h := &hostInfo{}
	h.refresh()
	hi = h
}

func HostName() string {
	return hi.hostName
}

func ProcessId() int {
	return hi.processId
}

func RawMacAddress() [][]byte {
	raw := hi.rawMacAddress
	if len(raw) == 0 {
		return [][]byte{DefaultMacRaw}
	}
	return raw
}
