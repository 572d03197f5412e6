package snowflake

import (
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/lonng/timewheel/internal/utils/net"
	"github.com/pingcap/errors"
)

const (
	// 机器标识位数, 合计等于 snowflake.NodeBits
	workerIdBits     int64 = 5
	datacenterIdBits int64 = 5
	maxWorkerId      int64 = -1 ^ (-1 << workerIdBits)
	maxDatacenterId  int64 = -1 ^ (-1 << datacenterIdBits)
)

// Generator 雪花算法 ID 生成器
type Generator struct {
	node *snowflake.Node
}

// New 创建生成器, 节点号由 MAC 地址和进程号推导
func New() (*Generator, error) {
	return NewWithNode(NodeId())
}

// NewWithNode 创建生成器, 使用指定的节点号, 范围 [0, 1023]
func NewWithNode(nodeId int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeId)
	if err != nil {
		return nil, errors.Annotatef(err, "snowflake node %d", nodeId)
	}
	return &Generator{node: node}, nil
}

// NextId 生成下一个唯一 ID
func (g *Generator) NextId() int64 {
	return g.node.Generate().Int64()
}

// NodeId 数据中心 ID 与工作者 ID 拼接成的节点号
func NodeId() int64 {
	datacenterId := getDatacenterId(maxDatacenterId)
	workerId := getWorkerId(datacenterId, maxWorkerId)
	return datacenterId<<workerIdBits | workerId
}

// getDatacenterId 取第一块网卡 MAC 的末两个字节
func getDatacenterId(maxDatacenterId int64) int64 {
	mac := net.RawMacAddress()[0]
	macLen := len(mac)
	if macLen < 2 {
		return 0
	}

	low := int64(mac[macLen-2])
	high := int64(mac[macLen-1]) << 8
	id := ((0x000000FF & low) | (0x0000FF00 & high)) >> 6
	return id % (maxDatacenterId + 1)
}

// getWorkerId 由数据中心 ID 和进程号计算
func getWorkerId(datacenterId, maxWorkerId int64) int64 {
	mpid := strconv.FormatInt(datacenterId, 10) + strconv.Itoa(net.ProcessId())
	hc := int64(hashCode(mpid))
	return (hc & 0xffff) % (maxWorkerId + 1)
}

// hashCode 计算字符串的哈希值
func hashCode(value string) int {
	h := 0
	for _, r := range value {
		h = 31*h + int(r)
	}
	return h
}
