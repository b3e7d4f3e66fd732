package code

var (
	ErrorStoreInit       = NewError(1001, lang{en: "State store initialization failed", zh_cn: "状态库初始化失败"})
	ErrorDBQuery         = NewError(1002, lang{en: "State store query failed", zh_cn: "状态库查询失败"})
	ErrorDBWrite         = NewError(1003, lang{en: "State store write failed", zh_cn: "状态库写入失败"})
	ErrorSnapshotRead    = NewError(1101, lang{en: "Course snapshot could not be read", zh_cn: "课程快照读取失败"})
	ErrorSnapshotInvalid = NewError(1102, lang{en: "Course snapshot is invalid", zh_cn: "课程快照格式错误"})
	ErrorDownloadFailed  = NewError(1201, lang{en: "Download failed", zh_cn: "下载失败"})
	ErrorNotifyFailed    = NewError(1202, lang{en: "Notification failed", zh_cn: "通知发送失败"})
	ErrorFileNotFound    = NewError(1301, lang{en: "File record not found", zh_cn: "文件记录不存在"})
	ErrorInvalidParams   = NewError(1401, lang{en: "Invalid parameters", zh_cn: "参数错误"})
)
