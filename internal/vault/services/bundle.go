package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/mod/semver"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/dbx"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/logging"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/shared"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/repositories/items"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/repositories/repomanager"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/signx"
)

// BundleService exports signed content bundles and imports them back,
// remapping item ids so a bundle never collides with local identifiers.
type BundleService struct {
	db         *sql.DB
	repos      repomanager.RepositoryManager
	signer     signx.Signer
	authorName string
	friendCode string
	appVersion string
	log        logging.Logger
}

// NewBundleService returns a BundleService signing as the given author.
func NewBundleService(db *sql.DB, repos repomanager.RepositoryManager, signer signx.Signer, authorName, friendCode, appVersion string, log logging.Logger) *BundleService {
	return &BundleService{
		db:         db,
		repos:      repos,
		signer:     signer,
		authorName: authorName,
		friendCode: friendCode,
		appVersion: appVersion,
		log:        log,
	}
}

// ExportScope selects what goes into a bundle. Folder scopes include every
// item assigned to the folder or any of its descendants.
type ExportScope struct {
	Type     models.ScopeType
	Id       string
	Category models.ItemType
}

// ConflictListError carries the unresolved conflicts that stopped an import.
// It unwraps to ErrImportConflict so callers can match with errors.Is.
type ConflictListError struct {
	Conflicts []models.ImportConflict
}

func (e *ConflictListError) Error() string {
	return fmt.Sprintf("%d unresolved import conflict(s)", len(e.Conflicts))
}

func (e *ConflictListError) Unwrap() error {
	return shared.ErrImportConflict
}

// Export collects the items covered by scope, signs them and returns the
// portable bundle. An empty scope is valid and produces an empty bundle.
func (s *BundleService) Export(ctx context.Context, scope ExportScope, description string) (*models.SignedBundle, error) {
	collected, err := s.collect(ctx, scope)
	if err != nil {
		return nil, err
	}

	bundleItems := make([]models.BundleItem, 0, len(collected))
	for _, item := range collected {
		bundleItems = append(bundleItems, models.BundleItem{
			Id:      item.Id,
			Type:    item.Type,
			Name:    item.Name,
			Content: item.Content,
		})
	}

	payloadBytes, err := json.Marshal(bundleItems)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	meta := models.BundleMetadata{
		Version:     models.BundleFormatVersion,
		ContentType: bundleContentType(bundleItems),
		ItemCount:   len(bundleItems),
		Author: models.BundleAuthor{
			DisplayName: s.authorName,
			PublicKey:   signx.EncodeKey(s.signer.PublicKey()),
			FriendCode:  s.friendCode,
		},
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Description: description,
		AppVersion:  s.appVersion,
	}

	signed, err := signingBytes(meta, string(payloadBytes))
	if err != nil {
		return nil, err
	}
	sig, err := s.signer.Sign(signed)
	if err != nil {
		return nil, fmt.Errorf("signing bundle: %w", err)
	}

	s.log.Info(ctx, "bundle exported", "scope", scope.Type, "items", len(bundleItems))
	return &models.SignedBundle{
		Metadata:  meta,
		Payload:   string(payloadBytes),
		Signature: signx.EncodeKey(sig),
	}, nil
}

func (s *BundleService) collect(ctx context.Context, scope ExportScope) ([]models.VaultItem, error) {
	itemRepo := s.repos.Items(s.db)

	switch scope.Type {
	case models.ScopeTypeItem:
		item, err := itemRepo.GetByID(ctx, scope.Id)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, fmt.Errorf("item %s: %w", scope.Id, shared.ErrNotFound)
		}
		return []models.VaultItem{*item}, nil

	case models.ScopeTypeFolder:
		return s.collectFolderTree(ctx, scope.Id)

	case models.ScopeTypeCategory:
		if !scope.Category.Valid() {
			return nil, fmt.Errorf("category %q: %w", scope.Category, shared.ErrValidation)
		}
		return itemRepo.ListByType(ctx, scope.Category)

	case models.ScopeTypeAll:
		return itemRepo.ListAll(ctx)
	}
	return nil, fmt.Errorf("scope type %q: %w", scope.Type, shared.ErrValidation)
}

// collectFolderTree walks a folder and its descendants breadth first and
// returns the items assigned anywhere in the subtree, deduplicated.
func (s *BundleService) collectFolderTree(ctx context.Context, folderId string) ([]models.VaultItem, error) {
	folderRepo := s.repos.Folders(s.db)

	root, err := folderRepo.GetByID(ctx, folderId)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, fmt.Errorf("folder %s: %w", folderId, shared.ErrNotFound)
	}

	seen := map[string]bool{}
	var ids []string
	queue := []string{folderId}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		assignments, err := folderRepo.ListFolderItems(ctx, current)
		if err != nil {
			return nil, err
		}
		for _, fi := range assignments {
			if !seen[fi.ItemId] {
				seen[fi.ItemId] = true
				ids = append(ids, fi.ItemId)
			}
		}

		children, err := folderRepo.ListChildren(ctx, current)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			queue = append(queue, child.Id)
		}
	}

	if len(ids) == 0 {
		return nil, nil
	}
	return s.repos.Items(s.db).ListByIDs(ctx, ids)
}

// bundleContentType is the single item type when the bundle is homogeneous,
// "mixed" otherwise, "empty" for an empty bundle.
func bundleContentType(items []models.BundleItem) string {
	if len(items) == 0 {
		return "empty"
	}
	first := items[0].Type
	for _, it := range items[1:] {
		if it.Type != first {
			return "mixed"
		}
	}
	return string(first)
}

// signingBytes builds the byte string the bundle signature covers: the
// canonical metadata JSON immediately followed by the payload bytes.
func signingBytes(meta models.BundleMetadata, payload string) ([]byte, error) {
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}
	return append(metaBytes, payload...), nil
}

// decodeBundle parses and verifies a serialized bundle. Failures come back as
// wrapped sentinel errors so callers can distinguish malformed input,
// incompatible format versions and bad signatures.
func decodeBundle(raw []byte) (*models.BundleMetadata, []models.BundleItem, error) {
	var bundle models.SignedBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, nil, fmt.Errorf("not a bundle: %w", shared.ErrMalformedBundle)
	}

	meta := bundle.Metadata
	if meta.Version == "" || meta.Author.PublicKey == "" || bundle.Signature == "" {
		return nil, nil, fmt.Errorf("missing metadata fields: %w", shared.ErrMalformedBundle)
	}
	if !semver.IsValid("v"+meta.Version) || semver.Major("v"+meta.Version) != semver.Major("v"+models.BundleFormatVersion) {
		return nil, nil, fmt.Errorf("format version %s: %w", meta.Version, shared.ErrIncompatibleBundle)
	}

	pub, err := signx.DecodeKey(meta.Author.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("author key is not valid base64: %w", shared.ErrBadSignature)
	}
	sig, err := signx.DecodeKey(bundle.Signature)
	if err != nil {
		return nil, nil, fmt.Errorf("signature is not valid base64: %w", shared.ErrBadSignature)
	}
	signed, err := signingBytes(meta, bundle.Payload)
	if err != nil {
		return nil, nil, err
	}
	if !signx.Verify(signed, sig, pub) {
		return nil, nil, fmt.Errorf("signature does not verify: %w", shared.ErrBadSignature)
	}

	var items []models.BundleItem
	if err := json.Unmarshal([]byte(bundle.Payload), &items); err != nil {
		return nil, nil, fmt.Errorf("payload is not an item list: %w", shared.ErrMalformedBundle)
	}
	if len(items) != meta.ItemCount {
		return nil, nil, fmt.Errorf("item count %d does not match payload: %w", meta.ItemCount, shared.ErrMalformedBundle)
	}
	for i, it := range items {
		if it.Id == "" || it.Name == "" {
			return nil, nil, fmt.Errorf("item %d is missing id or name: %w", i, shared.ErrMalformedBundle)
		}
		if !it.Type.Valid() {
			return nil, nil, fmt.Errorf("item %d has unknown type %q: %w", i, it.Type, shared.ErrMalformedBundle)
		}
		if len(it.Content) == 0 || !json.Valid(it.Content) {
			return nil, nil, fmt.Errorf("item %d content is not valid JSON: %w", i, shared.ErrMalformedBundle)
		}
	}
	return &meta, items, nil
}

// PreviewImport parses and verifies a bundle without writing anything. An
// unusable bundle yields Valid=false with the reason; a usable one lists its
// items and the conflicts an import would have to resolve.
func (s *BundleService) PreviewImport(ctx context.Context, raw []byte) (*models.ImportPreview, error) {
	meta, items, err := decodeBundle(raw)
	if err != nil {
		return &models.ImportPreview{Valid: false, Reason: err.Error()}, nil
	}

	conflicts, err := s.findConflicts(ctx, s.repos.Items(s.db), items)
	if err != nil {
		return nil, err
	}
	return &models.ImportPreview{
		Valid:     true,
		Metadata:  meta,
		Items:     items,
		Conflicts: conflicts,
	}, nil
}

func (s *BundleService) findConflicts(ctx context.Context, itemRepo items.Repository, bundleItems []models.BundleItem) ([]models.ImportConflict, error) {
	var conflicts []models.ImportConflict
	for _, it := range bundleItems {
		local, err := itemRepo.GetByIdentity(ctx, it.Name, it.Type)
		if err != nil {
			return nil, err
		}
		if local != nil {
			conflicts = append(conflicts, models.ImportConflict{
				BundleItemId: it.Id,
				LocalItemId:  local.Id,
				Name:         it.Name,
				Type:         it.Type,
			})
		}
	}
	return conflicts, nil
}

// Import verifies a bundle and writes its items in one transaction.
// resolutions is keyed by bundle item id; every conflict must carry one or
// the import stops with a ConflictListError and nothing is written.
//
// Ids inside the bundle belong to the exporter. Each imported item gets a
// fresh local id, and id strings appearing anywhere in imported content are
// rewritten through the same mapping so cross-references inside the bundle
// survive the trip. Skipped and replaced items map to the existing local id.
func (s *BundleService) Import(ctx context.Context, raw []byte, resolutions map[string]models.ImportResolution, actor string) (*models.ImportResult, error) {
	if actor == "" {
		return nil, fmt.Errorf("actor must not be empty: %w", shared.ErrValidation)
	}
	meta, bundleItems, err := decodeBundle(raw)
	if err != nil {
		return nil, err
	}
	for id, r := range resolutions {
		if !r.Valid() {
			return nil, fmt.Errorf("resolution %q for item %s: %w", r, id, shared.ErrValidation)
		}
	}

	result := &models.ImportResult{}
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		itemRepo := s.repos.Items(tx)
		versionRepo := s.repos.Versions(tx)

		conflicts, err := s.findConflicts(ctx, itemRepo, bundleItems)
		if err != nil {
			return err
		}
		conflictByBundleId := map[string]models.ImportConflict{}
		var unresolved []models.ImportConflict
		for _, c := range conflicts {
			conflictByBundleId[c.BundleItemId] = c
			if _, ok := resolutions[c.BundleItemId]; !ok {
				unresolved = append(unresolved, c)
			}
		}
		if len(unresolved) > 0 {
			return &ConflictListError{Conflicts: unresolved}
		}

		// First pass settles every item's local id so the second pass can
		// rewrite cross-references before anything is stored.
		idMap := make(map[string]string, len(bundleItems))
		for _, it := range bundleItems {
			if c, ok := conflictByBundleId[it.Id]; ok {
				switch resolutions[it.Id] {
				case models.ImportSkip, models.ImportReplace:
					idMap[it.Id] = c.LocalItemId
				default:
					idMap[it.Id] = uuid.NewString()
				}
			} else {
				idMap[it.Id] = uuid.NewString()
			}
		}

		message := fmt.Sprintf("imported from bundle by %s", meta.Author.DisplayName)
		now := time.Now().UTC()
		for _, it := range bundleItems {
			content, err := remapIDs(it.Content, idMap)
			if err != nil {
				return fmt.Errorf("remapping item %s: %w", it.Id, err)
			}
			localId := idMap[it.Id]

			c, conflicted := conflictByBundleId[it.Id]
			if !conflicted {
				item := &models.VaultItem{
					Id:        localId,
					Type:      it.Type,
					Name:      it.Name,
					Content:   content,
					CreatedAt: now,
					UpdatedAt: now,
				}
				if err := itemRepo.Insert(ctx, item); err != nil {
					return err
				}
				if _, err := appendSnapshot(ctx, versionRepo, localId, it.Type, content, actor, message); err != nil {
					return err
				}
				result.ImportedCount++
				continue
			}

			switch resolutions[it.Id] {
			case models.ImportSkip:
				result.SkippedCount++

			case models.ImportReplace:
				local, err := itemRepo.GetByID(ctx, c.LocalItemId)
				if err != nil {
					return err
				}
				if local == nil {
					return fmt.Errorf("item %s: %w", c.LocalItemId, shared.ErrNotFound)
				}
				local.Content = content
				if _, err := itemRepo.Update(ctx, local); err != nil {
					return err
				}
				if _, err := appendSnapshot(ctx, versionRepo, local.Id, local.Type, content, actor, message); err != nil {
					return err
				}
				result.ReplacedCount++

			case models.ImportRename, models.ImportKeepBoth:
				name, err := freeName(ctx, itemRepo, it.Name, it.Type)
				if err != nil {
					return err
				}
				item := &models.VaultItem{
					Id:        localId,
					Type:      it.Type,
					Name:      name,
					Content:   content,
					CreatedAt: now,
					UpdatedAt: now,
				}
				if err := itemRepo.Insert(ctx, item); err != nil {
					return err
				}
				if _, err := appendSnapshot(ctx, versionRepo, localId, it.Type, content, actor, message); err != nil {
					return err
				}
				result.ImportedCount++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "bundle imported",
		"imported", result.ImportedCount, "skipped", result.SkippedCount, "replaced", result.ReplacedCount,
		"author", meta.Author.DisplayName)
	return result, nil
}

// remapIDs rewrites every string in content that exactly equals a bundle item
// id into the matching local id. Keys are left alone; only values change.
func remapIDs(content json.RawMessage, idMap map[string]string) (json.RawMessage, error) {
	if len(idMap) == 0 {
		return content, nil
	}
	var v any
	if err := json.Unmarshal(content, &v); err != nil {
		return nil, err
	}
	return json.Marshal(remapValue(v, idMap))
}

func remapValue(v any, idMap map[string]string) any {
	switch val := v.(type) {
	case string:
		if mapped, ok := idMap[val]; ok {
			return mapped
		}
		return val
	case []any:
		for i := range val {
			val[i] = remapValue(val[i], idMap)
		}
		return val
	case map[string]any:
		for k := range val {
			val[k] = remapValue(val[k], idMap)
		}
		return val
	}
	return v
}
