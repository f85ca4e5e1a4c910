// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"bytes"

	"github.com/q191201771/naza/pkg/nazaatomic"
	"github.com/q191201771/rtp2nalu/pkg/avc"
	"github.com/q191201771/rtp2nalu/pkg/rtprtcp"
)

// NaluObserver 将nalu分发给多个下游，同时统计nalu类型，并在sps变化时打印视频参数
//
// 下游的回调都在同一个协程中依次执行
type NaluObserver struct {
	sinks []rtprtcp.INaluSink

	lastSps []byte
	spsCtx  avc.Context

	naluNum  nazaatomic.Uint64
	idrNum   nazaatomic.Uint64
	spsNum   nazaatomic.Uint64
	naluSize nazaatomic.Uint64
}

type NaluObserverStat struct {
	NaluNum  uint64 `json:"nalu_num"`
	IdrNum   uint64 `json:"idr_num"`
	SpsNum   uint64 `json:"sps_num"`
	NaluSize uint64 `json:"nalu_size"`
}

var _ rtprtcp.INaluSink = &NaluObserver{}

func NewNaluObserver(sinks ...rtprtcp.INaluSink) *NaluObserver {
	return &NaluObserver{
		sinks: sinks,
	}
}

func (o *NaluObserver) AddSink(sink rtprtcp.INaluSink) {
	o.sinks = append(o.sinks, sink)
}

func (o *NaluObserver) OnNalu(nalu []byte, timestamp uint32) {
	o.naluNum.Increment()
	o.naluSize.Add(uint64(len(nalu)))

	switch avc.ParseNaluType(nalu[0]) {
	case avc.NaluTypeIdrSlice:
		o.idrNum.Increment()
	case avc.NaluTypeSps:
		o.spsNum.Increment()
		o.onSps(nalu)
	}

	for _, sink := range o.sinks {
		sink.OnNalu(nalu, timestamp)
	}
}

func (o *NaluObserver) GetStat() NaluObserverStat {
	return NaluObserverStat{
		NaluNum:  o.naluNum.Load(),
		IdrNum:   o.idrNum.Load(),
		SpsNum:   o.spsNum.Load(),
		NaluSize: o.naluSize.Load(),
	}
}

// VideoContext 最近一次成功解析的sps信息，只能在回调所在协程调用
func (o *NaluObserver) VideoContext() avc.Context {
	return o.spsCtx
}

func (o *NaluObserver) onSps(nalu []byte) {
	if bytes.Equal(nalu, o.lastSps) {
		return
	}
	o.lastSps = append(o.lastSps[:0], nalu...)

	var ctx avc.Context
	if err := avc.ParseSps(nalu, &ctx); err != nil {
		Log.Warnf("parse sps failed. err=%+v, hex=%x", err, nalu)
		return
	}
	o.spsCtx = ctx
	Log.Infof("sps changed. profile=%d, level=%d, width=%d, height=%d", ctx.Profile, ctx.Level, ctx.Width, ctx.Height)
}
