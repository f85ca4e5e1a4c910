// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtprtcp

import (
	"github.com/q191201771/rtp2nalu/pkg/base"
)

// rfc6184 5.8.  Fragmentation Units (FUs)
//
// 0                   1                   2                   3
// 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// | FU indicator  |   FU header   |                               |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+                               |
// |                                                               |
// |                         FU payload                            |
// |                                                               |
// |                               +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |                               :...OPTIONAL RTP padding        |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//
// FU indicator:
// +---------------+
// |0|1|2|3|4|5|6|7|
// +-+-+-+-+-+-+-+-+
// |F|NRI|  Type   |
// +---------------+
//
// FU header:
// +---------------+
// |0|1|2|3|4|5|6|7|
// +-+-+-+-+-+-+-+-+
// |S|E|R|  Type   |
// +---------------+

const (
	fuaHeaderSize = 2

	fuaStartBit = 0x80
	fuaEndBit   = 0x40

	// 合成缓存的初始容量按起始分片大小的倍数预估，后续由append扩容
	fuaInitialBufferFragmentNum = 4
)

// FuaReassembler 将FU-A分片合成完整的nalu
//
// 同一时刻最多只跟踪一个正在合成的nalu，使用rtp时间戳关联同一个nalu的分片。
// 内部没有锁，也没有IO，调用方保证在同一个协程中按接收顺序调用 Feed
//
// 注意，只按到达顺序合成，不处理乱序：分片之间乱序或者丢包时，对应的nalu直接丢弃
type FuaReassembler struct {
	sink INaluSink
	stat *UnpackStat

	frag *fragmentState // 为nil时表示当前没有正在合成的nalu
}

type fragmentState struct {
	buf       []byte // 首字节始终是还原后的nalu头
	timestamp uint32
}

func NewFuaReassembler(sink INaluSink) *FuaReassembler {
	return &FuaReassembler{
		sink: sink,
		stat: NewUnpackStat(),
	}
}

// WithStat 使用外部的计数对象，比如和 RtpUnpackerAvc 共用一个
func (r *FuaReassembler) WithStat(stat *UnpackStat) *FuaReassembler {
	r.stat = stat
	return r
}

// Feed 输入FU-A包
//
// @param payload:   rtp包的payload部分，首字节为FU indicator。函数调用结束后，内部不持有该内存块
// @param timestamp: rtp包头中的时间戳
//
// @return 非nil时表示该分片被丢弃，调用方忽略即可，不影响后续的包
func (r *FuaReassembler) Feed(payload []byte, timestamp uint32) error {
	if len(payload) < fuaHeaderSize {
		r.stat.Add(UnpackEventShortFragmentPayload)
		return base.ErrRtpShortFragmentPayload
	}

	fuIndicator := payload[0]
	fuHeader := payload[1]
	startFlag := fuHeader&fuaStartBit != 0
	endFlag := fuHeader&fuaEndBit != 0

	if startFlag {
		if r.frag != nil {
			// 上一个nalu的结束分片丢了，已经合成的部分直接丢弃
			r.stat.Add(UnpackEventFragmentSuperseded)
			Log.Debugf("fu-a fragment superseded. prev ts=%d, prev size=%d, ts=%d",
				r.frag.timestamp, len(r.frag.buf), timestamp)
		}

		// 还原nalu头：F和NRI来自FU indicator，type来自FU header
		buf := make([]byte, 1, 1+(len(payload)-fuaHeaderSize)*fuaInitialBufferFragmentNum)
		buf[0] = (fuIndicator & 0xE0) | (fuHeader & 0x1F)
		r.frag = &fragmentState{
			buf:       append(buf, payload[fuaHeaderSize:]...),
			timestamp: timestamp,
		}
	} else {
		if r.frag == nil {
			r.stat.Add(UnpackEventOrphanFragment)
			Log.Debugf("fu-a fragment without start. ts=%d, end=%t", timestamp, endFlag)
			return base.ErrRtpOrphanFragment
		}

		if timestamp != r.frag.timestamp {
			// 分片和正在合成的nalu不属于同一帧，两者都丢弃，等待下一个起始分片
			r.stat.Add(UnpackEventMismatchedFragmentTimestamp)
			Log.Debugf("fu-a fragment timestamp mismatch. expected=%d, actual=%d, drop size=%d",
				r.frag.timestamp, timestamp, len(r.frag.buf))
			expected := r.frag.timestamp
			r.frag = nil
			return base.NewErrRtpMismatchedFragmentTimestamp(expected, timestamp)
		}

		r.frag.buf = append(r.frag.buf, payload[fuaHeaderSize:]...)
	}

	if endFlag {
		frag := r.frag
		r.frag = nil
		r.stat.Add(UnpackEventNalu)
		r.sink.OnNalu(shrinkBuffer(frag.buf), frag.timestamp)
	}
	return nil
}

// Active 当前是否有正在合成的nalu
func (r *FuaReassembler) Active() bool {
	return r.frag != nil
}

// Reset 丢弃正在合成的nalu，比如发送端重启之后
func (r *FuaReassembler) Reset() {
	r.frag = nil
}

// shrinkBuffer 交给sink的内存块由sink持有，多余的容量过大时拷贝一份大小刚好的
func shrinkBuffer(b []byte) []byte {
	if cap(b)-len(b) <= len(b)/4 {
		return b[:len(b):len(b)]
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
