package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"agropulse/internal/services/assistant"
	"agropulse/internal/services/locale"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// AssistantMenu returns a menu of the support guide, the main one by default.
func (h *APIHandler) AssistantMenu(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		id = assistant.Main
	}
	m, err := assistant.Lookup(id)
	if err != nil {
		respondError(c, http.StatusNotFound, err.Error())
		return
	}
	respondOK(c, m)
}

type chooseRequest struct {
	Step   string `json:"step"`
	Option string `json:"option" binding:"required"`
}

// AssistantChoose is the stateless form of a guide step.
func (h *APIHandler) AssistantChoose(c *gin.Context) {
	var req chooseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Step == "" {
		req.Step = assistant.Main
	}
	reply, err := assistant.Choose(req.Step, req.Option)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, assistant.ErrUnknownStep) || errors.Is(err, assistant.ErrUnknownOption) {
			status = http.StatusBadRequest
		}
		respondError(c, status, err.Error())
		return
	}
	respondOK(c, reply)
}

// socketMessage is a client frame. Option "reset" returns to the main menu.
type socketMessage struct {
	Option string `json:"option"`
}

type socketReply struct {
	assistant.Reply
	Error string `json:"error,omitempty"`
}

// AssistantSocket walks one session per connection: the server sends the
// current menu, then one reply per option the client sends.
func (h *APIHandler) AssistantSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[api] websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	session := assistant.NewSession()
	if err := conn.WriteJSON(socketReply{Reply: assistant.Reply{Menu: session.Current()}}); err != nil {
		return
	}
	for {
		conn.SetReadDeadline(time.Now().Add(10 * time.Minute))
		var msg socketMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[api] assistant socket: %v", err)
			}
			return
		}
		var out socketReply
		switch msg.Option {
		case "reset":
			out.Menu = session.Reset()
		default:
			reply, err := session.Choose(msg.Option)
			if err != nil {
				out.Menu = session.Current()
				out.Error = err.Error()
			} else {
				out.Reply = reply
			}
		}
		if err := conn.WriteJSON(out); err != nil {
			return
		}
	}
}

// Locale returns the UI strings for ?lang=, English when unknown.
func (h *APIHandler) Locale(c *gin.Context) {
	_, exact := locale.Resolve(c.Query("lang"))
	name, table := locale.Strings(c.Query("lang"))
	respondOK(c, gin.H{"language": name, "fallback": !exact, "strings": table})
}

func (h *APIHandler) Languages(c *gin.Context) {
	respondOK(c, locale.Languages())
}
