// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtprtcp

import "github.com/q191201771/rtp2nalu/pkg/avc"

// RtpPackerPayloadAvc 将h264 nalu切割成rtp payload，是 RtpUnpackerAvc 的逆过程
//
// 只生成 Single NAL unit 和 FU-A 两种格式
type RtpPackerPayloadAvc struct {
}

func NewRtpPackerPayloadAvc() *RtpPackerPayloadAvc {
	return &RtpPackerPayloadAvc{}
}

// PackAnnexb
//
// @param in: Annexb格式，可以包含多个nalu，AUD会被跳过
//
// @return out: 内存块为独立新申请；函数返回后，内部不再持有该内存块
func (r *RtpPackerPayloadAvc) PackAnnexb(in []byte, maxSize int) (out [][]byte, err error) {
	nals, err := avc.SplitNaluAnnexb(in)
	if err != nil {
		return nil, err
	}
	for _, nal := range nals {
		if avc.ParseNaluType(nal[0]) == avc.NaluTypeAud {
			continue
		}
		out = append(out, r.PackNal(nal, maxSize)...)
	}
	return
}

// PackNal
//
// @param nal:     单个nalu，不包含start code
// @param maxSize: 单个rtp payload的最大大小
func (r *RtpPackerPayloadAvc) PackNal(nal []byte, maxSize int) (out [][]byte) {
	if len(nal) == 0 || maxSize <= fuaHeaderSize {
		return
	}

	// single
	if len(nal) <= maxSize {
		item := make([]byte, len(nal))
		copy(item, nal)
		out = append(out, item)
		return
	}

	// FU-A
	fuIndicator := (nal[0] & 0xE0) | NaluTypeAvcFua
	nalType := avc.ParseNaluType(nal[0])

	// 注意，跳过输入的nal头那个字节，使用FU-A自己的两个字节的头，避免重复
	bpos := 1
	epos := len(nal)
	for bpos < epos {
		n := maxSize - fuaHeaderSize
		if epos-bpos < n {
			n = epos - bpos
		}

		item := make([]byte, fuaHeaderSize+n)
		item[0] = fuIndicator
		item[1] = nalType
		if bpos == 1 {
			item[1] |= fuaStartBit
		}
		if bpos+n == epos {
			item[1] |= fuaEndBit
		}
		copy(item[fuaHeaderSize:], nal[bpos:bpos+n])
		out = append(out, item)
		bpos += n
	}
	return
}
