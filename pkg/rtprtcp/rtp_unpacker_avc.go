// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtprtcp

import (
	"github.com/q191201771/rtp2nalu/pkg/avc"
	"github.com/q191201771/rtp2nalu/pkg/base"
)

// RtpUnpackerAvc 传入rtp包，合成h264 nalu，并回调给 INaluSink
//
// 一路h264视频流对应一个对象。
// 非法的、不支持的包都只是丢弃，Feed 返回的error仅用于观察，调用方继续输入下一个包即可
//
// 不是协程安全的，调用方保证在同一个协程中按接收顺序调用 Feed 或 FeedRaw
type RtpUnpackerAvc struct {
	option RtpUnpackerAvcOption

	sink        INaluSink
	stat        *UnpackStat
	reassembler *FuaReassembler
}

type RtpUnpackerAvcOption struct {
	// PayloadType 期望的rtp payload type，其他payload type的包直接丢弃
	PayloadType uint8
}

var defaultRtpUnpackerAvcOption = RtpUnpackerAvcOption{
	PayloadType: base.RtpPacketTypeAvc,
}

type ModRtpUnpackerAvcOption func(option *RtpUnpackerAvcOption)

func NewRtpUnpackerAvc(sink INaluSink, modOptions ...ModRtpUnpackerAvcOption) *RtpUnpackerAvc {
	option := defaultRtpUnpackerAvcOption
	for _, fn := range modOptions {
		fn(&option)
	}

	stat := NewUnpackStat()
	return &RtpUnpackerAvc{
		option:      option,
		sink:        sink,
		stat:        stat,
		reassembler: NewFuaReassembler(sink).WithStat(stat),
	}
}

// FeedRaw 输入原始的udp包
//
// 函数调用结束后，内部不持有<b>的内存块，所以接收循环可以复用读缓存
func (u *RtpUnpackerAvc) FeedRaw(b []byte) error {
	h, err := ParseRtpHeader(b)
	if err != nil {
		u.stat.Add(UnpackEventMalformedPacket)
		return err
	}
	return u.feed(h, b[RtpFixedHeaderLength:])
}

// Feed 输入已经解析好的rtp包
func (u *RtpUnpackerAvc) Feed(pkt RtpPacket) error {
	if len(pkt.Raw) < RtpFixedHeaderLength {
		u.stat.Add(UnpackEventMalformedPacket)
		return base.NewErrRtpMalformedPacket(len(pkt.Raw))
	}
	return u.feed(pkt.Header, pkt.Body())
}

func (u *RtpUnpackerAvc) GetStat() UnpackStatSnapshot {
	return u.stat.Snapshot()
}

// Stat 返回内部计数对象，可以在其他协程中读取
func (u *RtpUnpackerAvc) Stat() *UnpackStat {
	return u.stat
}

// Reset 丢弃正在合成的nalu
func (u *RtpUnpackerAvc) Reset() {
	u.reassembler.Reset()
}

func (u *RtpUnpackerAvc) feed(h RtpHeader, payload []byte) error {
	if h.PacketType != u.option.PayloadType {
		u.stat.Add(UnpackEventUnsupportedPayloadType)
		return base.NewErrRtpUnsupportedPayloadType(u.option.PayloadType, h.PacketType)
	}

	if len(payload) == 0 {
		u.stat.Add(UnpackEventEmptyPayload)
		return base.ErrRtpEmptyPayload
	}

	outerNaluType := avc.ParseNaluType(payload[0])
	switch {
	case outerNaluType >= NaluTypeAvcSingleMin && outerNaluType <= NaluTypeAvcSingleMax:
		// Single NAL unit packet，payload原样回调
		nalu := make([]byte, len(payload))
		copy(nalu, payload)
		u.stat.Add(UnpackEventNalu)
		u.sink.OnNalu(nalu, h.Timestamp)
		return nil
	case outerNaluType == NaluTypeAvcFua:
		return u.reassembler.Feed(payload, h.Timestamp)
	}

	u.stat.Add(UnpackEventUnsupportedNaluType)
	Log.Debugf("unsupported nalu type. type=%d, header=%s, len=%d", outerNaluType, h.DebugString(), len(payload))
	return base.NewErrRtpUnsupportedNaluType(outerNaluType)
}
