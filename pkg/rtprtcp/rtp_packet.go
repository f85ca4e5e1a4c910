// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtprtcp

import (
	"fmt"

	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/rtp2nalu/pkg/base"
)

// -----------------------------------
// rfc3550 5.1 RTP Fixed Header Fields
// -----------------------------------
//
// 0                   1                   2                   3
// 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |V=2|P|X|  CC   |M|     PT      |       sequence number         |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |                           timestamp                           |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |           synchronization source (SSRC) identifier            |
// +=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
// |            contributing source (CSRC) identifiers             |
// |                             ....                              |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//
// 注意，只解析固定的12字节头。version、padding、extension、CSRC count这几个字段
// 按位置解析出来，但是不做校验，payload始终从第12字节开始

const (
	RtpFixedHeaderLength = base.RtpFixedHeaderLength

	DefaultRtpVersion = 2
)

type RtpHeader struct {
	Version    uint8  // 2b
	Padding    uint8  // 1b
	Extension  uint8  // 1b
	CsrcCount  uint8  // 4b
	Mark       uint8  // 1b
	PacketType uint8  // 7b  *  payload type
	Seq        uint16 // 16b *
	Timestamp  uint32 // 32b *  samples
	Ssrc       uint32 // 32b    Synchronization source
}

type RtpPacket struct {
	Header RtpHeader
	Raw    []byte // 包含header内存
}

func (h *RtpHeader) PackTo(out []byte) {
	out[0] = h.CsrcCount | (h.Extension << 4) | (h.Padding << 5) | (h.Version << 6)
	out[1] = h.PacketType | (h.Mark << 7)
	bele.BePutUint16(out[2:], h.Seq)
	bele.BePutUint32(out[4:], h.Timestamp)
	bele.BePutUint32(out[8:], h.Ssrc)
}

func (h RtpHeader) DebugString() string {
	return fmt.Sprintf("pt=%d, seq=%d, ts=%d, mark=%d, ssrc=%d", h.PacketType, h.Seq, h.Timestamp, h.Mark, h.Ssrc)
}

func MakeDefaultRtpHeader() RtpHeader {
	return RtpHeader{
		Version:   DefaultRtpVersion,
		Padding:   0,
		Extension: 0,
		CsrcCount: 0,
	}
}

func MakeRtpPacket(h RtpHeader, payload []byte) (pkt RtpPacket) {
	pkt.Header = h
	pkt.Raw = make([]byte, RtpFixedHeaderLength+len(payload))
	pkt.Header.PackTo(pkt.Raw)
	copy(pkt.Raw[RtpFixedHeaderLength:], payload)
	return
}

// ParseRtpHeader 解析rtp固定头
//
// 函数调用结束后，不持有参数<b>的内存块
func ParseRtpHeader(b []byte) (h RtpHeader, err error) {
	if len(b) < RtpFixedHeaderLength {
		err = base.NewErrRtpMalformedPacket(len(b))
		return
	}

	h.Version = b[0] >> 6
	h.Padding = (b[0] >> 5) & 0x1
	h.Extension = (b[0] >> 4) & 0x1
	h.CsrcCount = b[0] & 0xF
	h.Mark = b[1] >> 7
	h.PacketType = b[1] & 0x7F
	h.Seq = bele.BeUint16(b[2:])
	h.Timestamp = bele.BeUint32(b[4:])
	h.Ssrc = bele.BeUint32(b[8:])
	return
}

// ParseRtpPacket 函数调用结束后，不持有参数<b>的内存块
func ParseRtpPacket(b []byte) (pkt RtpPacket, err error) {
	pkt.Header, err = ParseRtpHeader(b)
	if err != nil {
		return
	}
	pkt.Raw = make([]byte, len(b))
	copy(pkt.Raw, b)
	return
}

// Body 返回payload部分，引用的是 Raw 的内存块。Raw 不足一个rtp头时返回nil
func (p *RtpPacket) Body() []byte {
	if len(p.Raw) < RtpFixedHeaderLength {
		return nil
	}
	return p.Raw[RtpFixedHeaderLength:]
}
