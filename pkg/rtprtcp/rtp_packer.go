// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtprtcp

import (
	"math/rand"

	"github.com/q191201771/rtp2nalu/pkg/base"
)

// RtpPacker 将nalu打包成带rtp头的包，主要用于测试以及发送端的demo
type RtpPacker struct {
	payloadPacker *RtpPackerPayloadAvc
	ssrc          uint32
	option        RtpPackerOption

	seq uint16
}

type RtpPackerOption struct {
	MaxPayloadSize int
	PayloadType    uint8
	FirstSeq       uint16 // 初始seq，如果不设置，则随机产生
}

var defaultRtpPackerOption = RtpPackerOption{
	MaxPayloadSize: 1200,
	PayloadType:    base.RtpPacketTypeAvc,
}

type ModRtpPackerOption func(option *RtpPackerOption)

func NewRtpPacker(ssrc uint32, modOptions ...ModRtpPackerOption) *RtpPacker {
	option := defaultRtpPackerOption
	option.FirstSeq = uint16(rand.Int() % 65536)

	for _, fn := range modOptions {
		fn(&option)
	}

	return &RtpPacker{
		payloadPacker: NewRtpPackerPayloadAvc(),
		ssrc:          ssrc,
		option:        option,
		seq:           option.FirstSeq,
	}
}

// PackNalus 同一帧的多个nalu，使用相同的时间戳，最后一个rtp包设置mark位
//
// @param timestamp: rtp时间戳，h264为90000时钟频率
func (r *RtpPacker) PackNalus(nalus [][]byte, timestamp uint32) (out []RtpPacket) {
	var payloads [][]byte
	for _, nalu := range nalus {
		payloads = append(payloads, r.payloadPacker.PackNal(nalu, r.option.MaxPayloadSize)...)
	}

	for i, payload := range payloads {
		h := MakeDefaultRtpHeader()
		if i == len(payloads)-1 {
			h.Mark = 1
		}
		h.PacketType = r.option.PayloadType
		h.Seq = r.genSeq()
		h.Timestamp = timestamp
		h.Ssrc = r.ssrc
		out = append(out, MakeRtpPacket(h, payload))
	}
	return
}

func (r *RtpPacker) genSeq() (ret uint16) {
	ret = r.seq
	r.seq++
	return
}
