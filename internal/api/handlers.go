package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/annel0/voxelworld/internal/auth"
	"github.com/annel0/voxelworld/internal/cache"
	"github.com/annel0/voxelworld/internal/engine"
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl32"
)

// Position: целочисленные мировые координаты в JSON
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func toPosition(v vec.Vec3) Position {
	return Position{X: v.X, Y: v.Y, Z: v.Z}
}

// SetBlockRequest: запрос PUT /api/blocks
type SetBlockRequest struct {
	X  *int    `json:"x" binding:"required"`
	Y  *int    `json:"y" binding:"required"`
	Z  *int    `json:"z" binding:"required"`
	ID *uint16 `json:"id" binding:"required"`
}

// RayRequest: луч из origin в направлении target
type RayRequest struct {
	Origin [3]float32 `json:"origin"`
	Target [3]float32 `json:"target"`
}

// PlaceRequest: запрос POST /api/place
type PlaceRequest struct {
	RayRequest
	ID uint16 `json:"id" binding:"required"`
}

// FocusRequest: запрос POST /api/focus
type FocusRequest struct {
	Position [3]float32 `json:"position"`
}

// TokenRequest: запрос POST /api/token
type TokenRequest struct {
	Editor   string `json:"editor" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RayResponse описывает попадание луча
type RayResponse struct {
	Hit      bool       `json:"hit"`
	Block    Position   `json:"block"`
	ID       block.ID   `json:"id"`
	Name     string     `json:"name,omitempty"`
	Distance float32    `json:"distance"`
	Previous Position   `json:"previous"`
	Position [3]float32 `json:"position"`
}

func (rs *RestServer) rayResponse(hit world.RayHit, ok bool) RayResponse {
	if !ok {
		return RayResponse{}
	}
	resp := RayResponse{
		Hit:      true,
		Block:    toPosition(hit.Block),
		ID:       hit.ID,
		Distance: hit.Distance,
		Previous: toPosition(hit.Previous),
		Position: hit.Position,
	}
	if t, err := rs.engine.Catalog().Get(hit.ID); err == nil {
		resp.Name = t.Name
	}
	return resp
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: message})
}

// engineError отвечает на ошибку игрового цикла
func (rs *RestServer) engineError(c *gin.Context, err error) {
	if errors.Is(err, block.ErrUnknownBlock) {
		badRequest(c, "Неизвестный тип блока")
		return
	}
	rs.logger.Warn("Ошибка обращения к игровому циклу: %v", err)
	c.JSON(http.StatusServiceUnavailable, GenericResponse{
		Success: false,
		Message: "Игровой цикл недоступен",
	})
}

// handleToken выдаёт токен правки по паролю оператора
func (rs *RestServer) handleToken(c *gin.Context) {
	if rs.issuer == nil {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Авторизация выключена, правки открыты",
		})
		return
	}

	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный формат запроса")
		return
	}

	if !auth.CheckPassword(rs.passwordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, GenericResponse{
			Success: false,
			Message: "Неверный пароль",
		})
		return
	}

	token, err := rs.issuer.Issue(req.Editor)
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка генерации токена",
		})
		return
	}

	rs.logger.Info("🔑 Выдан токен правки для %s", req.Editor)
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Токен выдан",
		Data: gin.H{
			"token":      token,
			"expires_in": int(rs.issuer.TTL().Seconds()),
		},
	})
}

// handleCatalog возвращает зарегистрированные типы блоков
func (rs *RestServer) handleCatalog(c *gin.Context) {
	types := rs.engine.Catalog().Types()
	items := make([]gin.H, 0, len(types))
	for _, t := range types {
		textures := make(gin.H, len(block.Directions))
		for _, dir := range block.Directions {
			textures[dir.String()] = t.Textures[dir]
		}
		items = append(items, gin.H{"id": t.ID, "name": t.Name, "textures": textures})
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Каталог блоков",
		Data:    items,
	})
}

// handleGetBlock возвращает блок в мировых координатах; вне загруженных чанков: воздух
func (rs *RestServer) handleGetBlock(c *gin.Context) {
	var pos vec.Vec3
	var err error
	if pos.X, err = strconv.Atoi(c.Query("x")); err != nil {
		badRequest(c, "Неверная координата x")
		return
	}
	if pos.Y, err = strconv.Atoi(c.Query("y")); err != nil {
		badRequest(c, "Неверная координата y")
		return
	}
	if pos.Z, err = strconv.Atoi(c.Query("z")); err != nil {
		badRequest(c, "Неверная координата z")
		return
	}

	var id block.ID
	var loaded bool
	err = rs.engine.Do(c.Request.Context(), func(e *engine.Engine) error {
		id = e.World().GetBlock(pos)
		_, loaded = e.World().ChunkAt(pos)
		return nil
	})
	if err != nil {
		rs.engineError(c, err)
		return
	}

	data := gin.H{"position": toPosition(pos), "id": id, "loaded": loaded}
	if t, err := rs.engine.Catalog().Get(id); err == nil {
		data["name"] = t.Name
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Блок", Data: data})
}

// handleSetBlock устанавливает блок; в незагруженном чанке правка игнорируется
func (rs *RestServer) handleSetBlock(c *gin.Context) {
	var req SetBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный формат запроса")
		return
	}

	pos := vec.Vec3{X: *req.X, Y: *req.Y, Z: *req.Z}
	var applied bool
	err := rs.engine.Do(c.Request.Context(), func(e *engine.Engine) error {
		var err error
		applied, err = e.SetBlock(pos, block.ID(*req.ID))
		return err
	})
	if err != nil {
		rs.engineError(c, err)
		return
	}

	if applied {
		rs.logger.Debug("Блок %s := %d (%s)", pos, *req.ID, c.GetString(editorKey))
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: applied,
		Message: appliedMessage(applied),
		Data:    gin.H{"position": toPosition(pos), "id": *req.ID},
	})
}

func appliedMessage(applied bool) string {
	if applied {
		return "Блок установлен"
	}
	return "Чанк не загружен, правка проигнорирована"
}

// handleRaycast пускает луч без изменения мира
func (rs *RestServer) handleRaycast(c *gin.Context) {
	var req RayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный формат запроса")
		return
	}

	var hit world.RayHit
	var ok bool
	err := rs.engine.Do(c.Request.Context(), func(e *engine.Engine) error {
		hit, ok = e.Raycast(mgl32.Vec3(req.Origin), mgl32.Vec3(req.Target))
		return nil
	})
	if err != nil {
		rs.engineError(c, err)
		return
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Луч", Data: rs.rayResponse(hit, ok)})
}

// handleBreak ломает первый блок на луче
func (rs *RestServer) handleBreak(c *gin.Context) {
	var req RayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный формат запроса")
		return
	}

	var hit world.RayHit
	var ok bool
	err := rs.engine.Do(c.Request.Context(), func(e *engine.Engine) error {
		hit, ok = e.BreakBlock(mgl32.Vec3(req.Origin), mgl32.Vec3(req.Target))
		return nil
	})
	if err != nil {
		rs.engineError(c, err)
		return
	}

	message := "Луч ничего не задел"
	if ok {
		message = "Блок разрушен"
	}
	c.JSON(http.StatusOK, GenericResponse{Success: ok, Message: message, Data: rs.rayResponse(hit, ok)})
}

// handlePlace ставит блок перед первым блоком на луче
func (rs *RestServer) handlePlace(c *gin.Context) {
	var req PlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный формат запроса")
		return
	}

	var hit world.RayHit
	var hitOK, placed bool
	err := rs.engine.Do(c.Request.Context(), func(e *engine.Engine) error {
		var err error
		hit, placed, err = e.PlaceBlock(mgl32.Vec3(req.Origin), mgl32.Vec3(req.Target), block.ID(req.ID))
		hitOK = hit != (world.RayHit{})
		return err
	})
	if err != nil {
		rs.engineError(c, err)
		return
	}

	message := "Блок не установлен"
	if placed {
		message = "Блок установлен"
	}
	data := rs.rayResponse(hit, hitOK)
	c.JSON(http.StatusOK, GenericResponse{
		Success: placed,
		Message: message,
		Data:    gin.H{"placed_at": toPosition(hit.Previous), "ray": data},
	})
}

// handleFocus переносит точку стриминга
func (rs *RestServer) handleFocus(c *gin.Context) {
	var req FocusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный формат запроса")
		return
	}

	focus := mgl32.Vec3(req.Position)
	err := rs.engine.Do(c.Request.Context(), func(e *engine.Engine) error {
		e.SetFocus(focus)
		return nil
	})
	if err != nil {
		rs.engineError(c, err)
		return
	}

	chunk := world.ChunkCoords(vec.FromFloat(focus))
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Фокус стриминга обновлён",
		Data:    gin.H{"position": req.Position, "chunk": toPosition(chunk)},
	})
}

// handleChunks перечисляет загруженные чанки и их буферы
func (rs *RestServer) handleChunks(c *gin.Context) {
	var keys []vec.Vec3
	var focus mgl32.Vec3
	err := rs.engine.Do(c.Request.Context(), func(e *engine.Engine) error {
		keys = e.World().Keys()
		focus = e.Focus()
		return nil
	})
	if err != nil {
		rs.engineError(c, err)
		return
	}

	buffers := rs.engine.Buffers()
	chunks := make([]gin.H, 0, len(keys))
	for _, key := range keys {
		item := gin.H{"coords": toPosition(key)}
		if h, ok := buffers.Handle(key); ok {
			item["index_count"] = h.IndexCount
		}
		chunks = append(chunks, item)
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Загруженные чанки",
		Data: gin.H{
			"focus":       [3]float32(focus),
			"chunks":      chunks,
			"buffers":     buffers.Len(),
			"index_count": buffers.IndexCount(),
		},
	})
}

// handleChunkMesh выгружает установленный меш чанка в сжатом бинарном виде
func (rs *RestServer) handleChunkMesh(c *gin.Context) {
	var key vec.Vec3
	var err error
	if key.X, err = strconv.Atoi(c.Param("x")); err != nil {
		badRequest(c, "Неверная координата чанка x")
		return
	}
	if key.Y, err = strconv.Atoi(c.Param("y")); err != nil {
		badRequest(c, "Неверная координата чанка y")
		return
	}
	if key.Z, err = strconv.Atoi(c.Param("z")); err != nil {
		badRequest(c, "Неверная координата чанка z")
		return
	}

	mesh, version, ok := rs.engine.Buffers().Snapshot(key)
	if !ok {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "У чанка нет меша",
		})
		return
	}

	ctx := c.Request.Context()
	cacheKey := cache.MeshKey(rs.instanceID, key.X, key.Y, key.Z, version)
	blob, err := rs.meshCache.Get(ctx, cacheKey)
	if err != nil {
		if !cache.IsCacheMiss(err) {
			rs.logger.Warn("Кеш мешей недоступен: %v", err)
		}
		blob, err = rs.codec.Encode(mesh)
		if err != nil {
			rs.logger.Error("Ошибка кодирования меша чанка %s: %v", key, err)
			c.JSON(http.StatusInternalServerError, GenericResponse{
				Success: false,
				Message: "Ошибка кодирования меша",
			})
			return
		}
		if err := rs.meshCache.Set(ctx, cacheKey, blob, 0); err != nil {
			rs.logger.Warn("Не удалось закешировать меш чанка %s: %v", key, err)
		}
	}

	c.Header("X-Quad-Count", strconv.Itoa(mesh.QuadCount()))
	c.Header("X-Mesh-Version", strconv.FormatUint(version, 10))
	c.Data(http.StatusOK, MeshContentType, blob)
}

// MeshContentType: тип содержимого сжатого меша
const MeshContentType = "application/vnd.voxelworld.mesh+zstd"

// handleStatus возвращает состояние процесса и мира
func (rs *RestServer) handleStatus(c *gin.Context) {
	var tick uint64
	var loaded int
	err := rs.engine.Do(c.Request.Context(), func(e *engine.Engine) error {
		tick = e.TickCount()
		loaded = e.World().Len()
		return nil
	})
	if err != nil {
		rs.engineError(c, err)
		return
	}

	buffers := rs.engine.Buffers()

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Состояние сервера",
		Data: gin.H{
			"process":       rs.metrics.Snapshot(),
			"tick":          tick,
			"chunks_loaded": loaded,
			"buffers":       buffers.Len(),
			"index_count":   buffers.IndexCount(),
			"mesh_cache":    rs.meshCache.Stats(),
		},
	})
}
