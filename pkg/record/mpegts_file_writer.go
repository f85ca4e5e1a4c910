// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package record

import (
	"bufio"
	"context"
	"os"

	ts "github.com/asticode/go-astits"
	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/q191201771/rtp2nalu/pkg/avc"
	"github.com/q191201771/rtp2nalu/pkg/base"
	"github.com/q191201771/rtp2nalu/pkg/rtprtcp"
)

const (
	MpegtsVideoPid      uint16 = 0x100
	MpegtsVideoStreamId uint8  = 0xe0

	// PCR比PTS落后的时长，给解码端留出缓冲，单位90kHz，即700毫秒
	MpegtsPcrDelay = 63000

	mpegtsClockMask = 1<<33 - 1
)

// CalcPcr 由PTS计算PCR，PTS较小时按33位翻转
func CalcPcr(pts int64) int64 {
	return (pts - MpegtsPcrDelay) & mpegtsClockMask
}

// MpegtsFileWriter 将时间戳相同的nalu合成一帧，封装成ts文件
//
// rtp时间戳和ts的PTS都是90000的时钟频率，所以直接使用rtp时间戳作为PTS
type MpegtsFileWriter struct {
	uniqueKey string

	fp    *os.File
	w     *bufio.Writer
	muxer *ts.Muxer

	au     []byte // annexb格式，等待写入的一帧
	auTs   uint32
	auIdr  bool
	hasAu  bool
	auNum  uint64
	errNum uint64
}

var _ rtprtcp.INaluSink = &MpegtsFileWriter{}

func NewMpegtsFileWriter() *MpegtsFileWriter {
	return &MpegtsFileWriter{
		uniqueKey: base.GenUkMpegtsFileWriter(),
	}
}

func (mw *MpegtsFileWriter) Open(filename string) (err error) {
	mw.fp, err = os.Create(filename)
	if err != nil {
		return nazaerrors.Wrap(err)
	}
	mw.w = bufio.NewWriter(mw.fp)

	mw.muxer = ts.NewMuxer(context.Background(), mw.w)
	if err = mw.muxer.AddElementaryStream(ts.PMTElementaryStream{
		ElementaryPID: MpegtsVideoPid,
		StreamType:    ts.StreamTypeH264Video,
	}); err != nil {
		_ = mw.fp.Close()
		mw.fp = nil
		return nazaerrors.Wrap(err)
	}
	mw.muxer.SetPCRPID(MpegtsVideoPid)
	Log.Infof("[%s] open mpegts file writer. file=%s", mw.uniqueKey, filename)
	return nil
}

func (mw *MpegtsFileWriter) OnNalu(nalu []byte, timestamp uint32) {
	if mw.muxer == nil {
		return
	}

	if mw.hasAu && timestamp != mw.auTs {
		mw.flushAu()
	}

	if !mw.hasAu {
		mw.hasAu = true
		mw.auTs = timestamp
		mw.auIdr = false
		mw.au = mw.au[:0]
	}
	if avc.IsIdrNalu(nalu) {
		mw.auIdr = true
	}
	mw.au = avc.AppendAnnexb(mw.au, nalu)
}

func (mw *MpegtsFileWriter) Dispose() error {
	if mw.fp == nil {
		return base.ErrRecordNotOpened
	}
	if mw.hasAu {
		mw.flushAu()
	}
	Log.Infof("[%s] dispose mpegts file writer. file=%s, au=%d, err=%d", mw.uniqueKey, mw.fp.Name(), mw.auNum, mw.errNum)

	err := mw.w.Flush()
	if err2 := mw.fp.Close(); err == nil {
		err = err2
	}
	mw.fp = nil
	mw.w = nil
	mw.muxer = nil
	return err
}

func (mw *MpegtsFileWriter) UniqueKey() string {
	return mw.uniqueKey
}

func (mw *MpegtsFileWriter) Name() string {
	if mw.fp == nil {
		return ""
	}
	return mw.fp.Name()
}

func (mw *MpegtsFileWriter) flushAu() {
	mw.hasAu = false

	pts := &ts.ClockReference{Base: int64(mw.auTs)}
	pcr := &ts.ClockReference{Base: CalcPcr(pts.Base)}
	_, err := mw.muxer.WriteData(&ts.MuxerData{
		PID: MpegtsVideoPid,
		AdaptationField: &ts.PacketAdaptationField{
			RandomAccessIndicator: mw.auIdr,
			HasPCR:                true,
			PCR:                   pcr,
		},
		PES: &ts.PESData{
			Header: &ts.PESHeader{
				OptionalHeader: &ts.PESOptionalHeader{
					MarkerBits:      2,
					PTSDTSIndicator: ts.PTSDTSIndicatorOnlyPTS,
					PTS:             pts,
				},
				StreamID: MpegtsVideoStreamId,
			},
			Data: mw.au,
		},
	})
	if err != nil {
		mw.errNum++
		Log.Errorf("[%s] write ts failed. file=%s, pts=%d, err=%+v", mw.uniqueKey, mw.fp.Name(), mw.auTs, err)
		return
	}
	mw.auNum++
}
