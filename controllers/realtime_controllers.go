package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/middlewares"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/realtime"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

type RealtimeController struct {
	Hub      *realtime.Hub
	upgrader websocket.Upgrader
}

// NewRealtimeController -> allowedOrigins kosong atau "*" menerima semua origin
func NewRealtimeController(hub *realtime.Hub, allowedOrigins []string) *RealtimeController {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return &RealtimeController{
		Hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
		},
	}
}

// ServeWS -> GET /ws?token=...&rooms=admin,pos
func (rc *RealtimeController) ServeWS(c *gin.Context) {
	userID, role, _ := middlewares.Actor(c)
	if role == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	rooms := []string{}
	for _, room := range strings.Split(c.Query("rooms"), ",") {
		room = strings.TrimSpace(room)
		if room == "" {
			continue
		}
		if !realtime.CanJoin(role, userID, room) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		rooms = append(rooms, room)
	}
	if len(rooms) == 0 {
		rooms = defaultRooms(role, userID)
	}

	ws, err := rc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := realtime.NewClient(uuid.NewString(), role, userID)
	rc.Hub.Register(client, rooms...)

	utils.InfoLogger.WithFields(logrus.Fields{
		"client_id": client.ID,
		"role":      role,
		"rooms":     rooms,
	}).Info("Realtime client connected")

	go rc.writePump(ws, client)
	rc.readPump(ws, client)
}

func defaultRooms(role string, userID uint) []string {
	switch role {
	case "admin", "staff":
		return []string{realtime.RoomAdmin}
	case "pos":
		return []string{realtime.RoomPOS}
	case "customer":
		return []string{realtime.CustomerRoom(userID)}
	}
	return nil
}

// readPump menangani pesan join/leave dari client sampai koneksi putus
func (rc *RealtimeController) readPump(ws *websocket.Conn, client *realtime.Client) {
	defer func() {
		rc.Hub.Unregister(client)
		ws.Close()
		utils.InfoLogger.WithField("client_id", client.ID).Info("Realtime client disconnected")
	}()

	ws.SetReadLimit(4096)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		msg, ok := realtime.ParseControl(data)
		if !ok {
			continue
		}
		if !realtime.CanJoin(client.Role, client.UserID, msg.Room) {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"client_id": client.ID,
				"room":      msg.Room,
			}).Warn("Realtime room join rejected")
			continue
		}
		if msg.Action == "join" {
			rc.Hub.Join(client, msg.Room)
		} else {
			rc.Hub.Leave(client, msg.Room)
		}
	}
}

// writePump satu-satunya goroutine yang menulis ke koneksi
func (rc *RealtimeController) writePump(ws *websocket.Conn, client *realtime.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case payload, ok := <-client.Send:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
