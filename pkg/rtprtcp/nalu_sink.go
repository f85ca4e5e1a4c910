// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtprtcp

// INaluSink 接收合成好的完整nalu，比如解码器、录制文件
//
// 回调顺序与完成该nalu的rtp包（或者承载该nalu的唯一rtp包）的处理顺序一致
type INaluSink interface {
	// OnNalu
	//
	// @param nalu:      1字节nalu头加上后续的RBSP，不包含start code。
	//                   内存块为独立新申请；回调结束后，内部不再使用该内存块，业务方可以持有
	//
	// @param timestamp: 承载该nalu的rtp包头中的时间戳，没有做任何换算，h264的时钟频率为90000
	OnNalu(nalu []byte, timestamp uint32)
}

// NaluSinkFunc 将普通函数适配成 INaluSink
type NaluSinkFunc func(nalu []byte, timestamp uint32)

func (fn NaluSinkFunc) OnNalu(nalu []byte, timestamp uint32) {
	fn(nalu, timestamp)
}

var _ INaluSink = NaluSinkFunc(nil)
