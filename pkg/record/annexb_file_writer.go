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
	"os"

	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/q191201771/rtp2nalu/pkg/avc"
	"github.com/q191201771/rtp2nalu/pkg/base"
	"github.com/q191201771/rtp2nalu/pkg/rtprtcp"
)

// AnnexbFileWriter 将收到的nalu加上start code写入.h264文件，可以直接用ffplay播放
type AnnexbFileWriter struct {
	uniqueKey string

	fp *os.File
	w  *bufio.Writer

	naluNum    uint64
	writtenLen uint64
}

var _ rtprtcp.INaluSink = &AnnexbFileWriter{}

func NewAnnexbFileWriter() *AnnexbFileWriter {
	return &AnnexbFileWriter{
		uniqueKey: base.GenUkAnnexbFileWriter(),
	}
}

func (aw *AnnexbFileWriter) Open(filename string) (err error) {
	aw.fp, err = os.Create(filename)
	if err != nil {
		return nazaerrors.Wrap(err)
	}
	aw.w = bufio.NewWriter(aw.fp)
	Log.Infof("[%s] open annexb file writer. file=%s", aw.uniqueKey, filename)
	return nil
}

func (aw *AnnexbFileWriter) OnNalu(nalu []byte, timestamp uint32) {
	if aw.w == nil {
		return
	}
	if _, err := aw.w.Write(avc.NaluStartCode4); err != nil {
		Log.Errorf("[%s] write annexb file failed. file=%s, err=%+v", aw.uniqueKey, aw.Name(), err)
		return
	}
	if _, err := aw.w.Write(nalu); err != nil {
		Log.Errorf("[%s] write annexb file failed. file=%s, err=%+v", aw.uniqueKey, aw.Name(), err)
		return
	}
	aw.naluNum++
	aw.writtenLen += uint64(len(avc.NaluStartCode4) + len(nalu))
}

func (aw *AnnexbFileWriter) Dispose() error {
	if aw.fp == nil {
		return base.ErrRecordNotOpened
	}
	Log.Infof("[%s] dispose annexb file writer. file=%s, nalu=%d, written=%d", aw.uniqueKey, aw.Name(), aw.naluNum, aw.writtenLen)
	err := aw.w.Flush()
	if err2 := aw.fp.Close(); err == nil {
		err = err2
	}
	aw.fp = nil
	aw.w = nil
	return err
}

func (aw *AnnexbFileWriter) UniqueKey() string {
	return aw.uniqueKey
}

func (aw *AnnexbFileWriter) Name() string {
	if aw.fp == nil {
		return ""
	}
	return aw.fp.Name()
}
