package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// dashboardHTML polls /api/vagas every five seconds and colours each spot
// by status.
const dashboardHTML = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Status da Garagem</title>
  <style>
    body { font-family: sans-serif; background: #f0f2f5; margin: 0; padding: 2em; text-align: center; color: #333; }
    .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(200px, 1fr)); gap: 20px; max-width: 1200px; margin: auto; }
    .spot { border-radius: 8px; padding: 20px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); color: #fff; text-align: left; transition: background-color 0.5s ease; }
    .spot-id { font-size: 1.2em; font-weight: 700; }
    .spot-status { font-size: 2em; font-weight: 700; text-align: right; }
    .livre { background: #28a745; }
    .ocupada { background: #dc3545; }
    .movimentacao { background: #ffc107; color: #333; }
  </style>
</head>
<body>
  <h1>Painel de Status da Garagem</h1>
  <div class="grid" id="spots"><p>Carregando...</p></div>
  <script>
    const grid = document.getElementById('spots');
    async function refresh() {
      try {
        const res = await fetch('/api/vagas', { cache: 'no-store' });
        if (!res.ok) throw new Error(res.status);
        const spots = await res.json();
        grid.replaceChildren();
        if (spots.length === 0) {
          grid.innerHTML = '<p>Aguardando dados das vagas...</p>';
          return;
        }
        for (const s of spots) {
          const el = document.createElement('div');
          el.className = 'spot ' + s.status.toLowerCase();
          const id = document.createElement('div');
          id.className = 'spot-id';
          id.textContent = s.id;
          const st = document.createElement('div');
          st.className = 'spot-status';
          st.textContent = s.status;
          el.append(id, st);
          grid.appendChild(el);
        }
      } catch (e) {
        grid.innerHTML = '<p>Erro ao carregar as vagas. Tentando novamente...</p>';
      }
    }
    refresh();
    setInterval(refresh, 5000);
  </script>
</body>
</html>
`

// @Summary      Garage dashboard
// @Tags         spots
// @Produce      html
// @Success      200
// @Router       /vagas [get]
func (h *Handler) dashboard(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(dashboardHTML))
}
