// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtprtcp

import "github.com/q191201771/naza/pkg/nazaatomic"

// RtpSeqStat 根据rtp seq统计丢包以及乱序
//
// 只用于观察，不参与解包，也不会改变解包的丢弃行为
type RtpSeqStat struct {
	inited bool
	maxSeq uint16
	ssrc   uint32

	receivedNum  nazaatomic.Uint64
	lostNum      nazaatomic.Uint64
	reorderedNum nazaatomic.Uint64 // 包括重复的包
	resetNum     nazaatomic.Uint64
}

type RtpSeqStatSnapshot struct {
	ReceivedNum  uint64 `json:"received_num"`
	LostNum      uint64 `json:"lost_num"`
	ReorderedNum uint64 `json:"reordered_num"`
	ResetNum     uint64 `json:"reset_num"`
}

func NewRtpSeqStat() *RtpSeqStat {
	return &RtpSeqStat{}
}

// Feed 调用方保证在同一个协程中调用
func (s *RtpSeqStat) Feed(h RtpHeader) {
	s.receivedNum.Increment()

	if !s.inited || h.Ssrc != s.ssrc {
		if s.inited {
			// 发送端重启了
			s.resetNum.Increment()
		}
		s.inited = true
		s.ssrc = h.Ssrc
		s.maxSeq = h.Seq
		return
	}

	diff := SubSeq(h.Seq, s.maxSeq)
	switch {
	case diff == 1:
		s.maxSeq = h.Seq
	case diff > 1:
		// 后续如果迟到的包到了，会同时计入reordered，lost不回退
		s.lostNum.Add(uint64(diff - 1))
		s.maxSeq = h.Seq
	default:
		s.reorderedNum.Increment()
	}
}

func (s *RtpSeqStat) Snapshot() RtpSeqStatSnapshot {
	return RtpSeqStatSnapshot{
		ReceivedNum:  s.receivedNum.Load(),
		LostNum:      s.lostNum.Load(),
		ReorderedNum: s.reorderedNum.Load(),
		ResetNum:     s.resetNum.Load(),
	}
}
