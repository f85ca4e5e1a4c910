// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package avc

import (
	"github.com/q191201771/rtp2nalu/pkg/base"
)

var ErrAvc = base.ErrAvc

var NaluStartCode4 = []byte{0x0, 0x0, 0x0, 0x1}

// ISO_IEC_14496-10
// Table 7-1 – NAL unit type codes, syntax element categories, and NAL unit type classes
const (
	NaluTypeSlice    uint8 = 1
	NaluTypeIdrSlice uint8 = 5
	NaluTypeSei      uint8 = 6
	NaluTypeSps      uint8 = 7
	NaluTypePps      uint8 = 8
	NaluTypeAud      uint8 = 9  // Access Unit Delimiter
	NaluTypeFd       uint8 = 12 // Filler Data
)

var NaluTypeMapping = map[uint8]string{
	NaluTypeSlice:    "SLICE",
	NaluTypeIdrSlice: "IDR",
	NaluTypeSei:      "SEI",
	NaluTypeSps:      "SPS",
	NaluTypePps:      "PPS",
	NaluTypeAud:      "AUD",
	NaluTypeFd:       "FD",
}

// ParseNaluType
//
// rfc6184 1.3.  Network Abstraction Layer Unit Types
//
// +---------------+
// |0|1|2|3|4|5|6|7|
// +-+-+-+-+-+-+-+-+
// |F|NRI|  Type   |
// +---------------+
//
// @param v: nalu头的第一个字节
func ParseNaluType(v uint8) uint8 {
	return v & 0x1f
}

// ParseNri nal_ref_idc，保留在第一个字节的原位置
func ParseNri(v uint8) uint8 {
	return v & 0x60
}

func ParseNaluTypeReadable(v uint8) string {
	t := ParseNaluType(v)
	ret, ok := NaluTypeMapping[t]
	if !ok {
		return "unknown"
	}
	return ret
}

func IsIdrNalu(nalu []byte) bool {
	return len(nalu) > 0 && ParseNaluType(nalu[0]) == NaluTypeIdrSlice
}

func IsSpsNalu(nalu []byte) bool {
	return len(nalu) > 0 && ParseNaluType(nalu[0]) == NaluTypeSps
}

func IsPpsNalu(nalu []byte) bool {
	return len(nalu) > 0 && ParseNaluType(nalu[0]) == NaluTypePps
}

// IterateNaluStartCode 从<start>位置开始查找下一个start code
//
// @return pos:    start code的起始位置，找不到返回-1
// @return length: start code的长度，3或4
func IterateNaluStartCode(nalu []byte, start int) (pos, length int) {
	if nalu == nil || start >= len(nalu) {
		return -1, -1
	}
	count := 0
	for i := range nalu[start:] {
		switch nalu[start+i] {
		case 0:
			count++
		case 1:
			if count >= 2 {
				// 前一个nalu尾部多余的0不算在start code内
				if count > 3 {
					count = 3
				}
				return start + i - count, count + 1
			}
			count = 0
		default:
			count = 0
		}
	}
	return -1, -1
}

// SplitNaluAnnexb 将Annexb格式的流切割成多个不带start code的nalu
//
// @return nalList: 引用的是<nals>的内存块
func SplitNaluAnnexb(nals []byte) (nalList [][]byte, err error) {
	err = IterateNaluAnnexb(nals, func(nal []byte) {
		nalList = append(nalList, nal)
	})
	return
}

// IterateNaluAnnexb 遍历Annexb格式的流，<nals>的开头必须是start code
func IterateNaluAnnexb(nals []byte, handler func(nal []byte)) error {
	prePos, preLength := IterateNaluStartCode(nals, 0)
	if prePos != 0 {
		return ErrAvc
	}

	for {
		start := prePos + preLength
		pos, length := IterateNaluStartCode(nals, start)
		if pos == -1 {
			if start < len(nals) {
				handler(nals[start:])
			}
			return nil
		}
		if start < pos {
			handler(nals[start:pos])
		}
		prePos, preLength = pos, length
	}
}

// AppendAnnexb 在<out>后追加start code以及<nalu>
func AppendAnnexb(out []byte, nalu []byte) []byte {
	out = append(out, NaluStartCode4...)
	return append(out, nalu...)
}
