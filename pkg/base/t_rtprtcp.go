// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

const (
	// RtpPacketTypeAvc H264动态payload type的默认值
	//
	// 注意，96只是惯例，发送端可以使用其他动态值，比如我遇到过AVC使用105，
	// 所以接收端的该值是可配置的
	RtpPacketTypeAvc = 96

	RtpFixedHeaderLength = 12

	// RtpDefaultPort 接收端默认监听的udp端口
	RtpDefaultPort = 5004

	// RtpClockRateAvc H264的rtp时间戳时钟频率
	RtpClockRateAvc = 90000
)
