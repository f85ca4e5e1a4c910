// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtprtcp_test

import (
	"errors"
	"testing"

	"github.com/pion/rtp"
	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/rtp2nalu/pkg/base"
	"github.com/q191201771/rtp2nalu/pkg/rtprtcp"
)

func TestCompareSeq(t *testing.T) {
	assert.Equal(t, 0, rtprtcp.CompareSeq(0, 0))
	assert.Equal(t, 0, rtprtcp.CompareSeq(1024, 1024))
	assert.Equal(t, 0, rtprtcp.CompareSeq(65535, 65535))

	assert.Equal(t, 1, rtprtcp.CompareSeq(1, 0))
	assert.Equal(t, 1, rtprtcp.CompareSeq(16384, 0))
	assert.Equal(t, 1, rtprtcp.CompareSeq(20000, 0))
	assert.Equal(t, 1, rtprtcp.CompareSeq(32767, 0))

	assert.Equal(t, -1, rtprtcp.CompareSeq(32768, 0))
	assert.Equal(t, -1, rtprtcp.CompareSeq(65534, 0))
	assert.Equal(t, -1, rtprtcp.CompareSeq(65535, 0))
	assert.Equal(t, -1, rtprtcp.CompareSeq(65534, 1))
	assert.Equal(t, -1, rtprtcp.CompareSeq(65535, 1))

	assert.Equal(t, -1, rtprtcp.CompareSeq(0, 1))
	assert.Equal(t, -1, rtprtcp.CompareSeq(0, 16384))
	assert.Equal(t, -1, rtprtcp.CompareSeq(0, 32767))

	assert.Equal(t, 1, rtprtcp.CompareSeq(0, 32768))
	assert.Equal(t, 1, rtprtcp.CompareSeq(0, 65534))
	assert.Equal(t, 1, rtprtcp.CompareSeq(0, 65535))
	assert.Equal(t, 1, rtprtcp.CompareSeq(1, 65534))
	assert.Equal(t, 1, rtprtcp.CompareSeq(1, 65535))
}

func TestSubSeq(t *testing.T) {
	assert.Equal(t, 0, rtprtcp.SubSeq(0, 0))
	assert.Equal(t, 0, rtprtcp.SubSeq(1024, 1024))
	assert.Equal(t, 0, rtprtcp.SubSeq(65535, 65535))

	assert.Equal(t, 1, rtprtcp.SubSeq(1, 0))
	assert.Equal(t, 16384, rtprtcp.SubSeq(16384, 0))
	assert.Equal(t, 20000, rtprtcp.SubSeq(20000, 0))
	assert.Equal(t, 32767, rtprtcp.SubSeq(32767, 0))

	assert.Equal(t, -32768, rtprtcp.SubSeq(32768, 0))
	assert.Equal(t, -2, rtprtcp.SubSeq(65534, 0))
	assert.Equal(t, -1, rtprtcp.SubSeq(65535, 0))
	assert.Equal(t, -3, rtprtcp.SubSeq(65534, 1))
	assert.Equal(t, -2, rtprtcp.SubSeq(65535, 1))

	assert.Equal(t, -1, rtprtcp.SubSeq(0, 1))
	assert.Equal(t, -16384, rtprtcp.SubSeq(0, 16384))
	assert.Equal(t, -32767, rtprtcp.SubSeq(0, 32767))

	assert.Equal(t, 32768, rtprtcp.SubSeq(0, 32768))
	assert.Equal(t, 2, rtprtcp.SubSeq(0, 65534))
	assert.Equal(t, 1, rtprtcp.SubSeq(0, 65535))
	assert.Equal(t, 3, rtprtcp.SubSeq(1, 65534))
	assert.Equal(t, 2, rtprtcp.SubSeq(1, 65535))
}

func TestParseRtpHeader(t *testing.T) {
	b := []byte{
		0x80, 0xe0, 0x12, 0x34, // V=2, M=1, PT=96, seq=0x1234
		0xde, 0xad, 0xbe, 0xef, // timestamp
		0x01, 0x02, 0x03, 0x04, // ssrc
		0x65, 0x88,
	}
	h, err := rtprtcp.ParseRtpHeader(b)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint8(2), h.Version)
	assert.Equal(t, uint8(0), h.Padding)
	assert.Equal(t, uint8(0), h.Extension)
	assert.Equal(t, uint8(0), h.CsrcCount)
	assert.Equal(t, uint8(1), h.Mark)
	assert.Equal(t, uint8(96), h.PacketType)
	assert.Equal(t, uint16(0x1234), h.Seq)
	assert.Equal(t, uint32(0xdeadbeef), h.Timestamp)
	assert.Equal(t, uint32(0x01020304), h.Ssrc)

	out := make([]byte, rtprtcp.RtpFixedHeaderLength)
	h.PackTo(out)
	assert.Equal(t, b[:rtprtcp.RtpFixedHeaderLength], out)

	pkt, err := rtprtcp.ParseRtpPacket(b)
	assert.Equal(t, nil, err)
	assert.Equal(t, []byte{0x65, 0x88}, pkt.Body())
	b[12] = 0x41
	assert.Equal(t, []byte{0x65, 0x88}, pkt.Body())

	// 只有12字节头，payload为空
	h, err = rtprtcp.ParseRtpHeader(b[:12])
	assert.Equal(t, nil, err)
	assert.Equal(t, uint16(0x1234), h.Seq)

	// 不校验version、padding、extension、csrc count
	h, err = rtprtcp.ParseRtpHeader([]byte{0x3f, 0x7f, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3})
	assert.Equal(t, nil, err)
	assert.Equal(t, uint8(0), h.Version)
	assert.Equal(t, uint8(1), h.Padding)
	assert.Equal(t, uint8(1), h.Extension)
	assert.Equal(t, uint8(15), h.CsrcCount)
	assert.Equal(t, uint8(127), h.PacketType)

	for i := 0; i < rtprtcp.RtpFixedHeaderLength; i++ {
		_, err = rtprtcp.ParseRtpHeader(b[:i])
		assert.Equal(t, true, errors.Is(err, base.ErrRtpMalformedPacket))
		_, err = rtprtcp.ParseRtpPacket(b[:i])
		assert.Equal(t, true, errors.Is(err, base.ErrRtpMalformedPacket))
	}
}

func TestParseRtpHeader_Pion(t *testing.T) {
	p := rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         true,
			PayloadType:    96,
			SequenceNumber: 65535,
			Timestamp:      3000,
			SSRC:           0x11223344,
		},
		Payload: []byte{0x41, 0x9a, 0x00},
	}
	b, err := p.Marshal()
	assert.Equal(t, nil, err)

	pkt, err := rtprtcp.ParseRtpPacket(b)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint8(2), pkt.Header.Version)
	assert.Equal(t, uint8(1), pkt.Header.Mark)
	assert.Equal(t, uint8(96), pkt.Header.PacketType)
	assert.Equal(t, uint16(65535), pkt.Header.Seq)
	assert.Equal(t, uint32(3000), pkt.Header.Timestamp)
	assert.Equal(t, uint32(0x11223344), pkt.Header.Ssrc)
	assert.Equal(t, p.Payload, pkt.Body())

	h := rtprtcp.MakeDefaultRtpHeader()
	h.PacketType = 96
	h.Seq = 7
	h.Timestamp = 90000
	h.Ssrc = 1
	mine := rtprtcp.MakeRtpPacket(h, []byte{0x65})
	var p2 rtp.Packet
	err = p2.Unmarshal(mine.Raw)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint8(96), p2.PayloadType)
	assert.Equal(t, uint16(7), p2.SequenceNumber)
	assert.Equal(t, uint32(90000), p2.Timestamp)
	assert.Equal(t, []byte{0x65}, p2.Payload)
}

func TestRtpSeqStat(t *testing.T) {
	s := rtprtcp.NewRtpSeqStat()
	feed := func(seq uint16, ssrc uint32) {
		h := rtprtcp.MakeDefaultRtpHeader()
		h.Seq = seq
		h.Ssrc = ssrc
		s.Feed(h)
	}

	feed(65534, 1)
	feed(65535, 1)
	feed(0, 1)
	assert.Equal(t, rtprtcp.RtpSeqStatSnapshot{ReceivedNum: 3}, s.Snapshot())

	// 丢了1、2
	feed(3, 1)
	// 迟到的2，以及重复的3
	feed(2, 1)
	feed(3, 1)
	assert.Equal(t, rtprtcp.RtpSeqStatSnapshot{ReceivedNum: 6, LostNum: 2, ReorderedNum: 2}, s.Snapshot())

	// ssrc变化，重新开始
	feed(100, 2)
	feed(101, 2)
	assert.Equal(t, rtprtcp.RtpSeqStatSnapshot{ReceivedNum: 8, LostNum: 2, ReorderedNum: 2, ResetNum: 1}, s.Snapshot())
}

// 一次性丢了大量的包，之后的包依然按顺序统计
func TestRtpSeqStat_LargeGap(t *testing.T) {
	s := rtprtcp.NewRtpSeqStat()
	feed := func(seq uint16) {
		h := rtprtcp.MakeDefaultRtpHeader()
		h.Seq = seq
		h.Ssrc = 1
		s.Feed(h)
	}

	feed(0)
	for seq := uint16(20000); seq < 20100; seq++ {
		feed(seq)
	}
	assert.Equal(t, rtprtcp.RtpSeqStatSnapshot{ReceivedNum: 101, LostNum: 19999}, s.Snapshot())

	// 跨过翻转点的大间隔
	feed(50000)
	feed(100)
	assert.Equal(t, rtprtcp.RtpSeqStatSnapshot{ReceivedNum: 103, LostNum: 19999 + 29900 + 15635}, s.Snapshot())
}
