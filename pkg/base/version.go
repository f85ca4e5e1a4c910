// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

// 版本信息相关
// 一部分版本信息使用了naza.bininfo，另外一些信息在本文件提供

// 版本，该变量由外部脚本修改维护
const Rtp2NaluVersion = "v0.1.0"

var (
	Rtp2NaluLibraryName = "rtp2nalu"
	Rtp2NaluGithubRepo  = "github.com/q191201771/rtp2nalu"
	Rtp2NaluGithubSite  = "https://github.com/q191201771/rtp2nalu"

	// e.g. rtp2nalu v0.1.0 (github.com/q191201771/rtp2nalu)
	Rtp2NaluFullInfo = Rtp2NaluLibraryName + " " + Rtp2NaluVersion + " (" + Rtp2NaluGithubRepo + ")"
)
