package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/cache"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/metrics"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/repository"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/validator"
	apperrors "github.com/laitim2001/ai-document-extraction-project-sub002/pkg/errors"
	"github.com/laitim2001/ai-document-extraction-project-sub002/pkg/lock"
	"github.com/laitim2001/ai-document-extraction-project-sub002/pkg/logger"
)

const (
	// rotationLockKey 密钥轮换的分布式锁键
	rotationLockKey = "config:rotation"

	// maskFull 短敏感值的完全掩码
	maskFull = "••••••••"
	// maskPrefix 长敏感值保留末 4 位时的掩码前缀
	maskPrefix = "••••••"
)

// Encryptor 对称加密接口
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(envelope string) (string, error)
	Fingerprint() string
}

// EncryptorFactory 按主密钥构建加密器, 密钥轮换时使用
type EncryptorFactory func(masterKey string) (Encryptor, error)

// ChangeNotifier 配置变更通知器, 提交成功后同步调用
// 通知失败只记录日志, 不影响已提交的变更
type ChangeNotifier interface {
	Name() string
	Notify(ctx context.Context, event *model.ConfigChangeEvent) error
}

// RotationLocker 密钥轮换的跨进程互斥锁, 未配置时仅依赖进程内互斥
type RotationLocker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// ConfigService 配置中心核心服务
// 写路径: 校验 → 加密 → 单事务 (CAS 写值 + 历史追加 + 分类版本递增) → 缓存失效 → 变更通知
type ConfigService struct {
	configRepo  *repository.ConfigRepository
	historyRepo *repository.HistoryRepository
	validator   *validator.Validator
	notifiers   []ChangeNotifier
	locker      RotationLocker
	cache       *cache.Cache

	// encMu 守护 encryptor 的替换: 加密配置的写路径持读锁, 密钥轮换持写锁
	encMu     sync.RWMutex
	encryptor Encryptor
	factory   EncryptorFactory

	// rotateMu 保证进程内同一时刻至多一次轮换
	rotateMu sync.Mutex
}

// NewConfigService 创建配置服务, cacheTTL 非正时使用默认值
func NewConfigService(
	configRepo *repository.ConfigRepository,
	historyRepo *repository.HistoryRepository,
	vld *validator.Validator,
	encryptor Encryptor,
	factory EncryptorFactory,
	notifiers []ChangeNotifier,
	locker RotationLocker,
	cacheTTL time.Duration,
) *ConfigService {
	s := &ConfigService{
		configRepo:  configRepo,
		historyRepo: historyRepo,
		validator:   vld,
		notifiers:   notifiers,
		locker:      locker,
		encryptor:   encryptor,
		factory:     factory,
	}
	s.cache = cache.New(&configLoader{s: s}, cacheTTL)
	return s
}

// List 分页获取配置列表, 加密配置返回掩码值
func (s *ConfigService) List(ctx context.Context, page *model.Pagination, category, search string) ([]*model.ConfigEntry, error) {
	entries, err := s.configRepo.List(ctx, page, category, search)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		s.sanitize(entry)
	}
	return entries, nil
}

// Get 根据键获取单个配置, 加密配置返回掩码值
func (s *ConfigService) Get(ctx context.Context, key string) (*model.ConfigEntry, error) {
	entry, err := s.configRepo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, apperrors.ErrConfigNotFound
	}
	s.sanitize(entry)
	return entry, nil
}

// UpdateConfigRequest 更新配置请求
type UpdateConfigRequest struct {
	ConfigKey    string `json:"-"`
	ConfigValue  string `json:"config_value"`
	ChangeReason string `json:"change_reason"`
	Actor        string `json:"-"`
}

// Update 更新配置值
// 只读配置拒绝修改; 值先过校验; 写入与历史追加在同一事务内, 版本冲突返回 CONCURRENCY_CONFLICT
func (s *ConfigService) Update(ctx context.Context, req *UpdateConfigRequest) (*model.ConfigEntry, error) {
	entry, err := s.configRepo.GetByKey(ctx, req.ConfigKey)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, apperrors.ErrConfigNotFound
	}

	if err := s.validator.Validate(entry, req.ConfigValue); err != nil {
		return nil, err
	}

	// 加密配置的写入全程持读锁, 与密钥轮换互斥, 避免旧密钥密文在轮换后落库
	if entry.IsEncrypted {
		s.encMu.RLock()
		defer s.encMu.RUnlock()
	}

	newStored := req.ConfigValue
	newDisplay := req.ConfigValue
	previousDisplay := entry.ConfigValue
	previousEnvelope := ""
	if entry.IsEncrypted {
		previousEnvelope = entry.ConfigValue
		previousDisplay = s.maskedCurrentLocked(entry)
		envelope, eerr := s.encryptor.Encrypt(req.ConfigValue)
		if eerr != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternal, eerr)
		}
		newStored = envelope
		newDisplay = maskSecret(req.ConfigValue)
	}

	var categoryVersion int64
	err = s.configRepo.Transaction(ctx, func(txCtx context.Context) error {
		if err := s.configRepo.UpdateValueCAS(txCtx, entry.ConfigKey, newStored, entry.Version, req.Actor); err != nil {
			return err
		}
		record := &model.HistoryRecord{
			ConfigKey:        entry.ConfigKey,
			PreviousValue:    previousDisplay,
			NewValue:         newDisplay,
			PreviousEnvelope: previousEnvelope,
			ChangeReason:     req.ChangeReason,
			ChangedBy:        req.Actor,
		}
		if err := s.historyRepo.Append(txCtx, record); err != nil {
			return err
		}
		version, err := s.configRepo.BumpVersion(txCtx, entry.Category, req.Actor)
		if err != nil {
			return err
		}
		categoryVersion = version
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, entry, model.ChangeActionUpdate, req.Actor, categoryVersion)

	entry.ConfigValue = newDisplay
	maskDefault(entry)
	entry.Version++
	entry.UpdatedBy = req.Actor
	return entry, nil
}

// Rollback 回滚配置到指定历史记录的变更前值
// 历史记录必须属于该配置键; 回滚本身作为一条新历史追加, 即使恢复值与当前值相同
func (s *ConfigService) Rollback(ctx context.Context, key string, historyID int64, actor string) (*model.ConfigEntry, error) {
	entry, err := s.configRepo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, apperrors.ErrConfigNotFound
	}

	record, err := s.historyRepo.GetByID(ctx, historyID)
	if err != nil {
		return nil, err
	}
	if record == nil || record.ConfigKey != key {
		return nil, apperrors.ErrHistoryMismatch
	}

	if entry.IsReadOnly {
		return nil, apperrors.ErrReadOnlyViolation
	}

	if entry.IsEncrypted {
		s.encMu.RLock()
		defer s.encMu.RUnlock()
	}

	newStored := record.PreviousValue
	newDisplay := record.PreviousValue
	previousDisplay := entry.ConfigValue
	previousEnvelope := ""
	if entry.IsEncrypted {
		// 种子等未携带原密文的记录无法恢复, 与解密失败同样不透明地拒绝
		if record.PreviousEnvelope == "" {
			return nil, apperrors.ErrDecryptionFailure
		}
		plain, derr := s.encryptor.Decrypt(record.PreviousEnvelope)
		if derr != nil {
			return nil, apperrors.ErrDecryptionFailure
		}
		// 在当前密钥下重新加密, 新信封使用全新随机 nonce
		envelope, eerr := s.encryptor.Encrypt(plain)
		if eerr != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternal, eerr)
		}
		newStored = envelope
		previousEnvelope = entry.ConfigValue
		previousDisplay = s.maskedCurrentLocked(entry)
	}

	var categoryVersion int64
	err = s.configRepo.Transaction(ctx, func(txCtx context.Context) error {
		if err := s.configRepo.UpdateValueCAS(txCtx, key, newStored, entry.Version, actor); err != nil {
			return err
		}
		forward := &model.HistoryRecord{
			ConfigKey:        key,
			PreviousValue:    previousDisplay,
			NewValue:         newDisplay,
			PreviousEnvelope: previousEnvelope,
			IsRollback:       true,
			RollbackSourceID: &historyID,
			ChangeReason:     fmt.Sprintf("回滚至历史记录 #%d", historyID),
			ChangedBy:        actor,
		}
		if err := s.historyRepo.Append(txCtx, forward); err != nil {
			return err
		}
		version, err := s.configRepo.BumpVersion(txCtx, entry.Category, actor)
		if err != nil {
			return err
		}
		categoryVersion = version
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, entry, model.ChangeActionRollback, actor, categoryVersion)

	entry.ConfigValue = newDisplay
	maskDefault(entry)
	entry.Version++
	entry.UpdatedBy = actor
	return entry, nil
}

// ResetToDefault 恢复配置为默认值
// 当前值已等于默认值时为幂等空操作, 不追加历史也不发事件
func (s *ConfigService) ResetToDefault(ctx context.Context, key, actor string) (*model.ConfigEntry, error) {
	entry, err := s.configRepo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, apperrors.ErrConfigNotFound
	}
	if entry.IsReadOnly {
		return nil, apperrors.ErrReadOnlyViolation
	}

	if entry.IsEncrypted {
		s.encMu.RLock()
		defer s.encMu.RUnlock()
	}

	newStored := entry.DefaultValue
	newDisplay := entry.DefaultValue
	previousDisplay := entry.ConfigValue
	previousEnvelope := ""
	if entry.IsEncrypted {
		current := ""
		decryptFailed := false
		if entry.ConfigValue != "" {
			plain, derr := s.encryptor.Decrypt(entry.ConfigValue)
			if derr != nil {
				// 密文不可读时视为与默认值不同, 重置顺带修复坏密文
				decryptFailed = true
			} else {
				current = plain
			}
		}
		if !decryptFailed && current == entry.DefaultValue {
			entry.ConfigValue = maskIfNotEmpty(current)
			maskDefault(entry)
			return entry, nil
		}

		previousEnvelope = entry.ConfigValue
		switch {
		case decryptFailed:
			previousDisplay = maskFull
		case entry.ConfigValue == "":
			previousDisplay = ""
		default:
			previousDisplay = maskSecret(current)
		}

		if entry.DefaultValue != "" {
			envelope, eerr := s.encryptor.Encrypt(entry.DefaultValue)
			if eerr != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternal, eerr)
			}
			newStored = envelope
			newDisplay = maskSecret(entry.DefaultValue)
		}
	} else if entry.ConfigValue == entry.DefaultValue {
		return entry, nil
	}

	var categoryVersion int64
	err = s.configRepo.Transaction(ctx, func(txCtx context.Context) error {
		if err := s.configRepo.UpdateValueCAS(txCtx, key, newStored, entry.Version, actor); err != nil {
			return err
		}
		record := &model.HistoryRecord{
			ConfigKey:        key,
			PreviousValue:    previousDisplay,
			NewValue:         newDisplay,
			PreviousEnvelope: previousEnvelope,
			ChangeReason:     "恢复默认值",
			ChangedBy:        actor,
		}
		if err := s.historyRepo.Append(txCtx, record); err != nil {
			return err
		}
		version, err := s.configRepo.BumpVersion(txCtx, entry.Category, actor)
		if err != nil {
			return err
		}
		categoryVersion = version
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, entry, model.ChangeActionReset, actor, categoryVersion)

	entry.ConfigValue = newDisplay
	maskDefault(entry)
	entry.Version++
	entry.UpdatedBy = actor
	return entry, nil
}

// Reload 失效全部本地缓存并广播重载事件, 不产生历史记录
func (s *ConfigService) Reload(ctx context.Context, actor string) {
	s.cache.InvalidateAll()

	event := &model.ConfigChangeEvent{
		ID:         uuid.NewString(),
		ConfigKey:  "*",
		Action:     model.ChangeActionReload,
		EffectType: model.EffectImmediate,
		Actor:      actor,
		Timestamp:  time.Now().UnixMilli(),
	}
	s.notify(ctx, event)
	metrics.RecordConfigOperation("reload", "all")
}

// History 分页获取配置变更历史, 按时间倒序
func (s *ConfigService) History(ctx context.Context, key string, page *model.Pagination) ([]*model.HistoryRecord, error) {
	entry, err := s.configRepo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, apperrors.ErrConfigNotFound
	}
	return s.historyRepo.ListForKey(ctx, key, page)
}

// VerifyHistory 校验配置历史链的前后衔接是否完整
func (s *ConfigService) VerifyHistory(ctx context.Context, key string) (bool, error) {
	entry, err := s.configRepo.GetByKey(ctx, key)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, apperrors.ErrConfigNotFound
	}
	return s.historyRepo.VerifyChain(ctx, key)
}

// GetVersions 获取所有分类的配置版本号, 供前端轮询感知变更
func (s *ConfigService) GetVersions(ctx context.Context) ([]*model.ConfigVersion, error) {
	return s.configRepo.GetAllVersions(ctx)
}

// GetString 读取字符串类型配置
func (s *ConfigService) GetString(ctx context.Context, key string) (string, error) {
	v, err := s.cache.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if v.Type != model.ValueTypeString && v.Type != model.ValueTypeEnum {
		return "", apperrors.ErrValidation.WithMessagef("配置 %s 不是字符串类型", key)
	}
	return v.Raw, nil
}

// GetNumber 读取数值类型配置
func (s *ConfigService) GetNumber(ctx context.Context, key string) (float64, error) {
	v, err := s.cache.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if v.Type != model.ValueTypeNumber {
		return 0, apperrors.ErrValidation.WithMessagef("配置 %s 不是数值类型", key)
	}
	f, err := strconv.ParseFloat(v.Raw, 64)
	if err != nil {
		return 0, apperrors.ErrValidation.WithMessagef("配置 %s 的值不是合法数值", key)
	}
	return f, nil
}

// GetBool 读取布尔类型配置
func (s *ConfigService) GetBool(ctx context.Context, key string) (bool, error) {
	v, err := s.cache.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if v.Type != model.ValueTypeBoolean {
		return false, apperrors.ErrValidation.WithMessagef("配置 %s 不是布尔类型", key)
	}
	return v.Raw == "true", nil
}

// GetJSON 读取 JSON 类型配置并反序列化到 target
func (s *ConfigService) GetJSON(ctx context.Context, key string, target interface{}) error {
	v, err := s.cache.Get(ctx, key)
	if err != nil {
		return err
	}
	if v.Type != model.ValueTypeJSON {
		return apperrors.ErrValidation.WithMessagef("配置 %s 不是 JSON 类型", key)
	}
	if err := json.Unmarshal([]byte(v.Raw), target); err != nil {
		return apperrors.ErrValidation.WithMessagef("配置 %s 的值无法解析为目标结构", key)
	}
	return nil
}

// GetSecret 读取敏感配置的解密明文, 仅限进程内使用, 不得写入日志或响应
func (s *ConfigService) GetSecret(ctx context.Context, key string) (string, error) {
	v, err := s.cache.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if v.Type != model.ValueTypeSecret {
		return "", apperrors.ErrValidation.WithMessagef("配置 %s 不是敏感类型", key)
	}
	return v.Raw, nil
}

// RotateMasterKey 用新主密钥重加密全部加密配置
// 进程内与跨进程 (配置了分布式锁时) 均互斥; 明文不变, 不追加历史
func (s *ConfigService) RotateMasterKey(ctx context.Context, newMasterKey, actor string) error {
	if !s.rotateMu.TryLock() {
		return apperrors.ErrRotationInProgress
	}
	defer s.rotateMu.Unlock()

	start := time.Now()
	var err error
	if s.locker != nil {
		err = s.locker.WithLock(ctx, rotationLockKey, func(lockCtx context.Context) error {
			return s.rotate(lockCtx, newMasterKey, actor)
		})
		if errors.Is(err, lock.ErrLockAcquireFailed) {
			err = apperrors.ErrRotationInProgress
		}
	} else {
		err = s.rotate(ctx, newMasterKey, actor)
	}

	if err != nil {
		metrics.RecordKeyRotation("failure", time.Since(start).Seconds())
		return err
	}
	metrics.RecordKeyRotation("success", time.Since(start).Seconds())
	return nil
}

// HandleRemoteEvent 处理来自其他进程的变更事件, 仅做本地缓存失效
func (s *ConfigService) HandleRemoteEvent(event *model.ConfigChangeEvent) {
	switch event.Action {
	case model.ChangeActionReload:
		s.cache.InvalidateAll()
	case model.ChangeActionUpdate, model.ChangeActionRollback, model.ChangeActionReset:
		s.cache.Invalidate(event.ConfigKey)
	case model.ChangeActionRotate:
		// 轮换不改变明文, 本地快照无需失效
	}
}

// rotate 执行轮换: 单事务内逐条解密重加密, 任一密文不可读则整体回滚
func (s *ConfigService) rotate(ctx context.Context, newMasterKey, actor string) error {
	s.encMu.Lock()
	defer s.encMu.Unlock()

	next, err := s.factory(newMasterKey)
	if err != nil {
		return apperrors.ErrValidation.WithMessage("新主密钥无效")
	}
	if next.Fingerprint() == s.encryptor.Fingerprint() {
		logger.Info("master key unchanged, rotation skipped",
			zap.String("fingerprint", next.Fingerprint()))
		return nil
	}

	entries, err := s.configRepo.ListEncrypted(ctx)
	if err != nil {
		return err
	}

	rotated := 0
	err = s.configRepo.Transaction(ctx, func(txCtx context.Context) error {
		for _, entry := range entries {
			if entry.ConfigValue == "" {
				continue
			}
			plain, derr := s.encryptor.Decrypt(entry.ConfigValue)
			if derr != nil {
				logger.Error("rotation aborted, envelope unreadable",
					zap.String("config_key", entry.ConfigKey))
				return apperrors.ErrDecryptionFailure
			}
			envelope, eerr := next.Encrypt(plain)
			if eerr != nil {
				return apperrors.Wrap(apperrors.ErrInternal, eerr)
			}
			// 行级 CAS 同时防御并发更新: 任一方先提交, 另一方版本失配而失败
			if err := s.configRepo.UpdateValueCAS(txCtx, entry.ConfigKey, envelope, entry.Version, actor); err != nil {
				return err
			}
			rotated++
		}
		return nil
	})
	if err != nil {
		return err
	}

	oldFingerprint := s.encryptor.Fingerprint()
	s.encryptor = next
	logger.Info("master key rotated",
		zap.String("old_fingerprint", oldFingerprint),
		zap.String("new_fingerprint", next.Fingerprint()),
		zap.Int("reencrypted", rotated))

	event := &model.ConfigChangeEvent{
		ID:         uuid.NewString(),
		ConfigKey:  "*",
		Action:     model.ChangeActionRotate,
		EffectType: model.EffectImmediate,
		Actor:      actor,
		Timestamp:  time.Now().UnixMilli(),
	}
	s.notify(ctx, event)
	return nil
}

// afterMutation 提交后的统一收尾: 缓存失效 → 同步通知 → 指标
func (s *ConfigService) afterMutation(ctx context.Context, entry *model.ConfigEntry, action model.ChangeAction, actor string, categoryVersion int64) {
	s.cache.Invalidate(entry.ConfigKey)

	event := &model.ConfigChangeEvent{
		ID:         uuid.NewString(),
		ConfigKey:  entry.ConfigKey,
		Action:     action,
		EffectType: entry.EffectType,
		Category:   entry.Category,
		Actor:      actor,
		Timestamp:  time.Now().UnixMilli(),
	}
	s.notify(ctx, event)

	metrics.RecordConfigOperation(string(action), entry.Category)
	metrics.UpdateConfigVersion(entry.Category, float64(categoryVersion))
}

// notify 同步逐个调用通知器, 失败只记日志
func (s *ConfigService) notify(ctx context.Context, event *model.ConfigChangeEvent) {
	for _, n := range s.notifiers {
		if err := n.Notify(ctx, event); err != nil {
			logger.Error("change notification failed",
				zap.String("notifier", n.Name()),
				zap.String("config_key", event.ConfigKey),
				zap.String("action", string(event.Action)),
				zap.Error(err))
		}
	}
}

// sanitize 将加密配置的信封替换为掩码值, 默认值同样不外露
func (s *ConfigService) sanitize(entry *model.ConfigEntry) {
	if !entry.IsEncrypted {
		return
	}
	if entry.ConfigValue != "" {
		plain, err := s.decrypt(entry.ConfigValue)
		if err != nil {
			entry.ConfigValue = maskFull
		} else {
			entry.ConfigValue = maskSecret(plain)
		}
	}
	maskDefault(entry)
}

// maskedCurrentLocked 计算加密配置当前值的掩码展示, 调用方需持有 encMu 读锁
// 旧密文不可读时返回固定掩码, 不阻断本次写入, 坏密文可被覆盖修复
func (s *ConfigService) maskedCurrentLocked(entry *model.ConfigEntry) string {
	if entry.ConfigValue == "" {
		return ""
	}
	plain, err := s.encryptor.Decrypt(entry.ConfigValue)
	if err != nil {
		return maskFull
	}
	return maskSecret(plain)
}

// decrypt 在读锁保护下解密, 供不持有 encMu 的读路径使用
func (s *ConfigService) decrypt(envelope string) (string, error) {
	s.encMu.RLock()
	defer s.encMu.RUnlock()
	return s.encryptor.Decrypt(envelope)
}

// maskSecret 掩码敏感值: 超过 8 个字符保留末 4 位, 否则完全掩码
func maskSecret(plain string) string {
	r := []rune(plain)
	if len(r) > 8 {
		return maskPrefix + string(r[len(r)-4:])
	}
	return maskFull
}

func maskIfNotEmpty(plain string) string {
	if plain == "" {
		return ""
	}
	return maskSecret(plain)
}

// maskDefault 加密配置的默认值同样不外露
func maskDefault(entry *model.ConfigEntry) {
	if entry.IsEncrypted && entry.DefaultValue != "" {
		entry.DefaultValue = maskFull
	}
}

// configLoader 缓存回源适配器, 从存储加载并解密为运行时值
type configLoader struct {
	s *ConfigService
}

// LoadAll 全量加载, 单个坏密文跳过并告警, 不阻断整体快照
func (l *configLoader) LoadAll(ctx context.Context) (map[string]model.ParsedValue, error) {
	entries, err := l.s.configRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.ParsedValue, len(entries))
	for _, entry := range entries {
		raw := entry.ConfigValue
		if entry.IsEncrypted && entry.ConfigValue != "" {
			plain, derr := l.s.decrypt(entry.ConfigValue)
			if derr != nil {
				logger.Error("decrypt config failed, excluded from snapshot",
					zap.String("config_key", entry.ConfigKey))
				continue
			}
			raw = plain
		}
		out[entry.ConfigKey] = model.ParsedValue{Raw: raw, Type: entry.ValueType}
	}
	return out, nil
}

// LoadOne 按键加载, 密文不可读时返回不透明的解密失败
func (l *configLoader) LoadOne(ctx context.Context, key string) (model.ParsedValue, error) {
	entry, err := l.s.configRepo.GetByKey(ctx, key)
	if err != nil {
		return model.ParsedValue{}, err
	}
	if entry == nil {
		return model.ParsedValue{}, apperrors.ErrConfigNotFound
	}
	raw := entry.ConfigValue
	if entry.IsEncrypted && entry.ConfigValue != "" {
		raw, err = l.s.decrypt(entry.ConfigValue)
		if err != nil {
			return model.ParsedValue{}, err
		}
	}
	return model.ParsedValue{Raw: raw, Type: entry.ValueType}, nil
}
