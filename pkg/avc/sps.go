// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package avc

import (
	"github.com/q191201771/naza/pkg/nazabits"
	"github.com/q191201771/naza/pkg/nazaerrors"
)

// Context 从sps中解析出的、业务方通常关心的信息
type Context struct {
	Profile uint8
	Level   uint8
	Width   uint32
	Height  uint32
}

// Sps ISO-14496-10.pdf 7.3.2.1.1 Sequence parameter set data syntax
//
// 只包含解析宽高所需的字段
type Sps struct {
	ProfileIdc         uint8
	ConstraintSet0Flag uint8
	ConstraintSet1Flag uint8
	ConstraintSet2Flag uint8
	LevelIdc           uint8
	SpsId              uint32

	ChromaFormatIdc            uint32
	ResidualColorTransformFlag uint8
	BitDepthLuma               uint32
	BitDepthChroma             uint32
	TransFormBypass            uint8

	Log2MaxFrameNumMinus4          uint32
	PicOrderCntType                uint32
	Log2MaxPicOrderCntLsb          uint32
	NumRefFrames                   uint32
	GapsInFrameNumValueAllowedFlag uint8
	PicWidthInMbsMinusOne          uint32
	PicHeightInMapUnitsMinusOne    uint32
	FrameMbsOnlyFlag               uint8
	MbAdaptiveFrameFieldFlag       uint8
	Direct8X8InferenceFlag         uint8
	FrameCroppingFlag              uint8
	FrameCropLeftOffset            uint32
	FrameCropRightOffset           uint32
	FrameCropTopOffset             uint32
	FrameCropBottomOffset          uint32
}

// ParseSps 解析sps，获取profile、level以及宽高
//
// @param nalu: 完整的sps nalu，包含1字节nalu头，不包含start code
func ParseSps(nalu []byte, ctx *Context) error {
	br := nazabits.NewBitReader(RemoveEmulationPrevention(nalu))
	var sps Sps
	if err := parseSpsBasic(&br, &sps); err != nil {
		return err
	}
	ctx.Profile = sps.ProfileIdc
	ctx.Level = sps.LevelIdc

	if err := parseSpsBeta(&br, &sps); err != nil {
		return err
	}
	ctx.Width = (sps.PicWidthInMbsMinusOne+1)*16 - (sps.FrameCropLeftOffset+sps.FrameCropRightOffset)*2
	ctx.Height = (2-uint32(sps.FrameMbsOnlyFlag))*(sps.PicHeightInMapUnitsMinusOne+1)*16 - (sps.FrameCropTopOffset+sps.FrameCropBottomOffset)*2
	return nil
}

// RemoveEmulationPrevention 去除nalu中的防竞争字节，也即 00 00 03 中的 03
//
// 没有防竞争字节时，直接返回<nalu>，否则返回新申请的内存块
func RemoveEmulationPrevention(nalu []byte) []byte {
	var out []byte
	zeros := 0
	for i, b := range nalu {
		if zeros >= 2 && b == 0x03 {
			if out == nil {
				out = make([]byte, i, len(nalu))
				copy(out, nalu[:i])
			}
			zeros = 0
			continue
		}
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
		if out != nil {
			out = append(out, b)
		}
	}
	if out == nil {
		return nalu
	}
	return out
}

func parseSpsBasic(br *nazabits.BitReader, sps *Sps) error {
	t, err := br.ReadBits8(8)
	if err != nil {
		return nazaerrors.Wrap(err)
	}
	if ParseNaluType(t) != NaluTypeSps {
		return nazaerrors.Wrap(ErrAvc)
	}

	if sps.ProfileIdc, err = br.ReadBits8(8); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.ConstraintSet0Flag, err = br.ReadBits8(1); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.ConstraintSet1Flag, err = br.ReadBits8(1); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.ConstraintSet2Flag, err = br.ReadBits8(1); err != nil {
		return nazaerrors.Wrap(err)
	}
	if _, err = br.ReadBits8(5); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.LevelIdc, err = br.ReadBits8(8); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.SpsId, err = br.ReadGolomb(); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.SpsId >= 32 {
		return nazaerrors.Wrap(ErrAvc)
	}
	return nil
}

func parseSpsBeta(br *nazabits.BitReader, sps *Sps) error {
	var err error

	switch sps.ProfileIdc {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128, 138, 139, 134, 135:
		if sps.ChromaFormatIdc, err = br.ReadGolomb(); err != nil {
			return nazaerrors.Wrap(err)
		}
		if sps.ChromaFormatIdc > 3 {
			return nazaerrors.Wrap(ErrAvc)
		}
		if sps.ChromaFormatIdc == 3 {
			if sps.ResidualColorTransformFlag, err = br.ReadBits8(1); err != nil {
				return nazaerrors.Wrap(err)
			}
		}

		if sps.BitDepthLuma, err = br.ReadGolomb(); err != nil {
			return nazaerrors.Wrap(err)
		}
		sps.BitDepthLuma += 8
		if sps.BitDepthChroma, err = br.ReadGolomb(); err != nil {
			return nazaerrors.Wrap(err)
		}
		sps.BitDepthChroma += 8
		if sps.BitDepthChroma > 14 || sps.BitDepthLuma > 14 {
			return nazaerrors.Wrap(ErrAvc)
		}

		if sps.TransFormBypass, err = br.ReadBits8(1); err != nil {
			return nazaerrors.Wrap(err)
		}

		var flag uint8
		if flag, err = br.ReadBits8(1); err != nil {
			return nazaerrors.Wrap(err)
		}
		if flag == 1 {
			// TODO(chef): [feat] 解析seq_scaling_list，远程桌面的编码器目前都没有开启 202610
			return nazaerrors.Wrap(ErrAvc)
		}
	default:
		sps.ChromaFormatIdc = 1
		sps.BitDepthLuma = 8
		sps.BitDepthChroma = 8
	}

	if sps.Log2MaxFrameNumMinus4, err = br.ReadGolomb(); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.Log2MaxFrameNumMinus4 > 12 {
		return nazaerrors.Wrap(ErrAvc)
	}
	if sps.PicOrderCntType, err = br.ReadGolomb(); err != nil {
		return nazaerrors.Wrap(err)
	}

	switch sps.PicOrderCntType {
	case 0:
		if sps.Log2MaxPicOrderCntLsb, err = br.ReadGolomb(); err != nil {
			return nazaerrors.Wrap(err)
		}
		sps.Log2MaxPicOrderCntLsb += 4
	case 2:
		// noop
	default:
		Log.Debugf("not impl yet. sps.PicOrderCntType=%d", sps.PicOrderCntType)
		return nazaerrors.Wrap(ErrAvc)
	}

	if sps.NumRefFrames, err = br.ReadGolomb(); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.GapsInFrameNumValueAllowedFlag, err = br.ReadBits8(1); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.PicWidthInMbsMinusOne, err = br.ReadGolomb(); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.PicHeightInMapUnitsMinusOne, err = br.ReadGolomb(); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.FrameMbsOnlyFlag, err = br.ReadBits8(1); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.FrameMbsOnlyFlag == 0 {
		if sps.MbAdaptiveFrameFieldFlag, err = br.ReadBits8(1); err != nil {
			return nazaerrors.Wrap(err)
		}
	}
	if sps.Direct8X8InferenceFlag, err = br.ReadBits8(1); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.FrameCroppingFlag, err = br.ReadBits8(1); err != nil {
		return nazaerrors.Wrap(err)
	}
	if sps.FrameCroppingFlag == 1 {
		if sps.FrameCropLeftOffset, err = br.ReadGolomb(); err != nil {
			return nazaerrors.Wrap(err)
		}
		if sps.FrameCropRightOffset, err = br.ReadGolomb(); err != nil {
			return nazaerrors.Wrap(err)
		}
		if sps.FrameCropTopOffset, err = br.ReadGolomb(); err != nil {
			return nazaerrors.Wrap(err)
		}
		if sps.FrameCropBottomOffset, err = br.ReadGolomb(); err != nil {
			return nazaerrors.Wrap(err)
		}
	}

	return nil
}
