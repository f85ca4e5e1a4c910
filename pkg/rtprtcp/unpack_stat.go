// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtprtcp

import "github.com/q191201771/naza/pkg/nazaatomic"

// UnpackEvent 解包过程中产生的事件，除了 UnpackEventNalu 以外，都意味着有数据被丢弃
type UnpackEvent int

const (
	UnpackEventNalu UnpackEvent = iota
	UnpackEventMalformedPacket
	UnpackEventUnsupportedPayloadType
	UnpackEventEmptyPayload
	UnpackEventUnsupportedNaluType
	UnpackEventShortFragmentPayload
	UnpackEventMismatchedFragmentTimestamp
	UnpackEventOrphanFragment
	UnpackEventFragmentSuperseded

	unpackEventNum
)

func (e UnpackEvent) ReadableString() string {
	switch e {
	case UnpackEventNalu:
		return "nalu"
	case UnpackEventMalformedPacket:
		return "malformed_packet"
	case UnpackEventUnsupportedPayloadType:
		return "unsupported_payload_type"
	case UnpackEventEmptyPayload:
		return "empty_payload"
	case UnpackEventUnsupportedNaluType:
		return "unsupported_nalu_type"
	case UnpackEventShortFragmentPayload:
		return "short_fragment_payload"
	case UnpackEventMismatchedFragmentTimestamp:
		return "mismatched_fragment_timestamp"
	case UnpackEventOrphanFragment:
		return "orphan_fragment"
	case UnpackEventFragmentSuperseded:
		return "fragment_superseded"
	}
	return "unknown"
}

// UnpackStat 各事件的计数
//
// 写入方只有解包的那一个协程，读取方可以是任意协程
type UnpackStat struct {
	counters [unpackEventNum]nazaatomic.Uint64
}

type UnpackStatSnapshot struct {
	NaluNum                        uint64 `json:"nalu_num"`
	MalformedPacketNum             uint64 `json:"malformed_packet_num"`
	UnsupportedPayloadTypeNum      uint64 `json:"unsupported_payload_type_num"`
	EmptyPayloadNum                uint64 `json:"empty_payload_num"`
	UnsupportedNaluTypeNum         uint64 `json:"unsupported_nalu_type_num"`
	ShortFragmentPayloadNum        uint64 `json:"short_fragment_payload_num"`
	MismatchedFragmentTimestampNum uint64 `json:"mismatched_fragment_timestamp_num"`
	OrphanFragmentNum              uint64 `json:"orphan_fragment_num"`
	FragmentSupersededNum          uint64 `json:"fragment_superseded_num"`
}

func NewUnpackStat() *UnpackStat {
	return &UnpackStat{}
}

func (s *UnpackStat) Add(e UnpackEvent) {
	if e < 0 || e >= unpackEventNum {
		return
	}
	s.counters[e].Increment()
}

func (s *UnpackStat) Count(e UnpackEvent) uint64 {
	if e < 0 || e >= unpackEventNum {
		return 0
	}
	return s.counters[e].Load()
}

// DropNum 所有丢弃事件的总和
func (s *UnpackStat) DropNum() (n uint64) {
	for e := UnpackEventMalformedPacket; e < unpackEventNum; e++ {
		n += s.counters[e].Load()
	}
	return
}

func (s *UnpackStat) Snapshot() UnpackStatSnapshot {
	return UnpackStatSnapshot{
		NaluNum:                        s.Count(UnpackEventNalu),
		MalformedPacketNum:             s.Count(UnpackEventMalformedPacket),
		UnsupportedPayloadTypeNum:      s.Count(UnpackEventUnsupportedPayloadType),
		EmptyPayloadNum:                s.Count(UnpackEventEmptyPayload),
		UnsupportedNaluTypeNum:         s.Count(UnpackEventUnsupportedNaluType),
		ShortFragmentPayloadNum:        s.Count(UnpackEventShortFragmentPayload),
		MismatchedFragmentTimestampNum: s.Count(UnpackEventMismatchedFragmentTimestamp),
		OrphanFragmentNum:              s.Count(UnpackEventOrphanFragment),
		FragmentSupersededNum:          s.Count(UnpackEventFragmentSuperseded),
	}
}
