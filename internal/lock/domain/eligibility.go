package domain

// 操作资格裁决：纯函数，不依赖渲染或存储上下文

// CanSelect dealer 能否勾选这条 lead
// 被其他 dealer 锁定时不可勾选，已购买者除外（购买优先于锁）
func CanSelect(view LockView, purchased bool) bool {
	if purchased {
		return true
	}
	return !view.IsLocked || view.IsOwnLock
}

// CanLock dealer 能否对这条 lead 加锁
// 持锁者本人可以再次加锁（升级为更长或付费的锁），他人的活跃锁则拒绝
func CanLock(view LockView) bool {
	return !view.IsLocked || view.IsOwnLock
}

// CanUnlock dealer 能否解锁当前锁
// 持锁者本人或 admin 可解锁；permanent 锁同样只接受持锁者或 admin 的显式解锁
func CanUnlock(lock *LeadLock, dealerID uint, isAdmin bool) bool {
	if lock == nil {
		return false
	}
	return isAdmin || lock.DealerID == dealerID
}

// CanDownload dealer 能否下载这条 lead
// 导出只认购买记录：已购买即可下载，锁状态不参与裁决（购买优先于锁）
func CanDownload(purchased bool) bool {
	return purchased
}
