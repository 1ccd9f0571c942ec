package api

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// tailWindow bounds how much of the log file is read for a tail.
const tailWindow = 256 << 10

// AdminOverview reports model and content counters.
func (h *APIHandler) AdminOverview(c *gin.Context) {
	ctx := c.Request.Context()
	out := gin.H{"market_rows": h.Market.Len()}
	if h.Advisor != nil {
		out["model_version"] = h.Advisor.ModelVersion()
		out["engine"] = h.Advisor.Engine()
	}
	if h.ModelInfo != nil && h.ModelInfo.Accuracy != nil {
		out["model_accuracy"] = *h.ModelInfo.Accuracy
	}
	if h.Papers != nil {
		n, err := h.Papers.Count(ctx)
		if err != nil {
			log.Printf("[api] count papers: %v", err)
		}
		out["papers"] = n
	}
	if h.Community != nil {
		n, err := h.Community.MessageCount(ctx)
		if err != nil {
			log.Printf("[api] count messages: %v", err)
		}
		out["contact_messages"] = n
	}
	if h.History != nil {
		total, crops, err := h.History.Stats(ctx)
		if err != nil {
			log.Printf("[api] recommendation stats: %v", err)
		}
		out["recommendations"] = total
		out["top_crops"] = crops
	}
	respondOK(c, out)
}

// AdminLogs returns the last ?lines= lines (default 50) of the log file.
func (h *APIHandler) AdminLogs(c *gin.Context) {
	if h.LogFile == "" {
		unavailable(c, "log file")
		return
	}
	lines, err := tailLines(h.LogFile, queryInt(c, "lines", 50))
	if errors.Is(err, os.ErrNotExist) {
		respondOK(c, []string{})
		return
	}
	if err != nil {
		log.Printf("[api] read log: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to read log")
		return
	}
	respondOK(c, lines)
}

func tailLines(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	start := st.Size() - tailWindow
	if start < 0 {
		start = 0
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if start > 0 {
		// Drop the partial first line.
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			data = data[i+1:]
		}
	}

	lines := []string{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64<<10), tailWindow)
	for sc.Scan() {
		lines = append(lines, sc.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	return lines, sc.Err()
}

func (h *APIHandler) AdminMessages(c *gin.Context) {
	if h.Community == nil {
		unavailable(c, "community")
		return
	}
	msgs, err := h.Community.Messages(c.Request.Context())
	if err != nil {
		communityError(c, err)
		return
	}
	respondOK(c, msgs)
}

func (h *APIHandler) AdminRecommendations(c *gin.Context) {
	if h.History == nil {
		unavailable(c, "recommendation history")
		return
	}
	recs, err := h.History.Recent(c.Request.Context(), queryInt(c, "limit", 20))
	if err != nil {
		log.Printf("[api] %v", err)
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}
	respondOK(c, recs)
}

func (h *APIHandler) AdminClearPapers(c *gin.Context) {
	if h.Papers == nil {
		unavailable(c, "papers")
		return
	}
	n, err := h.Papers.Clear(c.Request.Context())
	if err != nil {
		paperError(c, err)
		return
	}
	respondOK(c, gin.H{"removed": n})
}

func (h *APIHandler) AdminDeletePost(c *gin.Context) {
	if h.Community == nil {
		unavailable(c, "community")
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.Community.DeletePost(c.Request.Context(), id); err != nil {
		communityError(c, err)
		return
	}
	respondOK(c, gin.H{"id": id})
}
