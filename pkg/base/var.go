// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtp2nalu
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "github.com/q191201771/naza/pkg/nazalog"

var Log = nazalog.GetGlobalLogger()

// ----- recv --------------------
var (
	// RecvSessionLogDumpDebugMaxNum 日志级别为debug时，recv session打印被丢弃rtp包十六进制内容的最大次数
	RecvSessionLogDumpDebugMaxNum = 32
)
